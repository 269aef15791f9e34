package models

import "sort"

// Section tags a chunk with the part of the CV it came from
type Section string

const (
	SectionContact             Section = "contact"
	SectionEducation           Section = "education"
	SectionSkills              Section = "skills"
	SectionCertifications      Section = "certifications"
	SectionExperience          Section = "experience"
	SectionProjects            Section = "projects"
	SectionAdditionalPositions Section = "additional_positions"
)

// Sections lists every valid section in emission order
var Sections = []Section{
	SectionContact,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionExperience,
	SectionProjects,
	SectionAdditionalPositions,
}

// Valid reports whether s is one of the fixed CV sections
func (s Section) Valid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// metadata keys
const (
	MetaSource       = "source"
	MetaIndex        = "index"
	MetaCompany      = "company"
	MetaProjectName  = "projectName"
	MetaOrganization = "organization"
)

// Chunk represents a retrievable block of CV text with metadata
type Chunk struct {
	Content   string         `json:"content"`
	Section   Section        `json:"section"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// Index returns metadata.index, or -1 when it is absent
func (c Chunk) Index() int {
	return MetadataIndex(c.Metadata)
}

// MatchResult is a ranked row returned by similarity search
type MatchResult struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Section    Section        `json:"section"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// MetadataIndex reads the numeric index key, tolerating the float64 that JSON decoding produces
func MetadataIndex(meta map[string]any) int {
	switch v := meta[MetaIndex].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return -1
	}
}

// EmbedSummary is the result of one embed pipeline run
type EmbedSummary struct {
	Success        bool     `json:"success"`
	ChunksEmbedded int      `json:"chunksEmbedded"`
	Sections       []string `json:"sections"`
	Error          string   `json:"error,omitempty"`
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}

// SortMatches orders by descending similarity, breaking ties by ascending index
func SortMatches(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return MetadataIndex(results[i].Metadata) < MetadataIndex(results[j].Metadata)
	})
}
