package parser

import (
	"strings"

	"portfolio-rag/internal/models"
)

// ChunkResume splits the CV into retrievable chunks. Profile sections get one
// chunk each; experience, projects and additional positions get one chunk per
// entry. metadata.index runs across all chunks in emission order.
func ChunkResume(resume *models.Resume) []models.Chunk {
	if resume == nil {
		return nil
	}

	var chunks []models.Chunk
	add := func(section models.Section, content string, extra map[string]any) {
		meta := map[string]any{
			models.MetaSource: models.MetadataSource,
			models.MetaIndex:  len(chunks),
		}
		for k, v := range extra {
			meta[k] = v
		}
		chunks = append(chunks, models.Chunk{
			Content:  content,
			Section:  section,
			Metadata: meta,
		})
	}

	add(models.SectionContact, formatContact(resume.Contact), nil)
	add(models.SectionEducation, formatEducation(resume.Education), nil)
	add(models.SectionSkills, formatSkills(resume.Skills), nil)
	add(models.SectionCertifications, formatCertifications(resume.Certifications), nil)

	for _, exp := range resume.Experience {
		add(models.SectionExperience, formatExperience(exp), map[string]any{models.MetaCompany: exp.Company})
	}
	for _, proj := range resume.Projects {
		add(models.SectionProjects, formatProject(proj), map[string]any{models.MetaProjectName: proj.Name})
	}
	for _, pos := range resume.AdditionalPositions {
		add(models.SectionAdditionalPositions, formatAdditionalPosition(pos), map[string]any{models.MetaOrganization: pos.Organization})
	}

	return chunks
}

// SectionNames returns the distinct sections of chunks in first-seen order.
func SectionNames(chunks []models.Chunk) []string {
	seen := make(map[models.Section]bool)
	names := []string{}
	for _, c := range chunks {
		if seen[c.Section] {
			continue
		}
		seen[c.Section] = true
		names = append(names, string(c.Section))
	}
	return names
}

func formatContact(c models.Contact) string {
	return strings.Join([]string{
		"Name: " + c.Name,
		"Tagline: " + c.Tagline,
		"Location: " + c.Location,
		"Email: " + c.Email,
		"Phone: " + c.Phone,
		"LinkedIn: " + c.LinkedIn,
		"GitHub: " + c.GitHub,
	}, "\n")
}

func formatEducation(e models.Education) string {
	return strings.Join([]string{
		"Education: " + e.Degree + " at " + e.Institution,
		"Location: " + e.Location,
		"Expected Graduation: " + e.GraduationDate,
		"Relevant Coursework: " + strings.Join(e.Coursework, ", "),
	}, "\n")
}

func formatSkills(categories []models.SkillCategory) string {
	lines := []string{"Skills and Technologies:"}
	for _, cat := range categories {
		names := make([]string, 0, len(cat.Items))
		for _, item := range cat.Items {
			names = append(names, item.Name)
		}
		lines = append(lines, cat.Category+": "+strings.Join(names, ", "))
	}
	return strings.Join(lines, "\n")
}

func formatCertifications(certs []models.Certification) string {
	lines := []string{"Certifications and Courses:"}
	for _, cert := range certs {
		lines = append(lines, "- "+cert.Name+" ("+cert.Provider+")")
	}
	return strings.Join(lines, "\n")
}

func formatExperience(exp models.Experience) string {
	lines := []string{
		"Work Experience: " + exp.Role + " at " + exp.Company,
		"Project: " + exp.Project,
		"Location: " + exp.Location,
		"Duration: " + exp.DateRange,
		"Tech Stack: " + strings.Join(exp.TechStack, ", "),
		"Responsibilities and Achievements:",
	}
	return strings.Join(bullets(lines, exp.Descriptions), "\n")
}

func formatProject(proj models.Project) string {
	lines := []string{
		"Project: " + proj.Name,
		"Role: " + proj.Role,
		"Duration: " + proj.DateRange,
		"Summary: " + proj.Tagline,
		"Tech Stack: " + strings.Join(proj.TechStack, ", "),
		"Details:",
	}
	return strings.Join(bullets(lines, proj.Descriptions), "\n")
}

func formatAdditionalPosition(pos models.AdditionalPosition) string {
	lines := []string{
		"Additional Position: " + pos.Role + " at " + pos.Organization,
		"Project: " + pos.Project,
		"Location: " + pos.Location,
		"Duration: " + pos.DateRange,
		"Details:",
	}
	return strings.Join(bullets(lines, pos.Descriptions), "\n")
}

func bullets(lines, items []string) []string {
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return lines
}
