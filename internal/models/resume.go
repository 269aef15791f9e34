package models

// Resume is the structured CV the chunker works from
type Resume struct {
	Contact             Contact              `yaml:"contact" json:"contact"`
	Education           Education            `yaml:"education" json:"education"`
	Skills              []SkillCategory      `yaml:"skills" json:"skills"`
	Certifications      []Certification      `yaml:"certifications" json:"certifications"`
	Experience          []Experience         `yaml:"experience" json:"experience"`
	Projects            []Project            `yaml:"projects" json:"projects"`
	AdditionalPositions []AdditionalPosition `yaml:"additional_positions" json:"additionalPositions"`
}

type Contact struct {
	Name     string `yaml:"name" json:"name"`
	Tagline  string `yaml:"tagline" json:"tagline"`
	Phone    string `yaml:"phone" json:"phone"`
	Email    string `yaml:"email" json:"email"`
	Location string `yaml:"location" json:"location"`
	LinkedIn string `yaml:"linkedin" json:"linkedin"`
	GitHub   string `yaml:"github" json:"github"`
}

type Education struct {
	Institution    string   `yaml:"institution" json:"institution"`
	Location       string   `yaml:"location" json:"location"`
	Degree         string   `yaml:"degree" json:"degree"`
	GraduationDate string   `yaml:"graduation_date" json:"graduationDate"`
	Coursework     []string `yaml:"coursework" json:"coursework"`
}

type SkillItem struct {
	Name string `yaml:"name" json:"name"`
}

type SkillCategory struct {
	Category string      `yaml:"category" json:"category"`
	Items    []SkillItem `yaml:"items" json:"items"`
}

type Certification struct {
	Name     string `yaml:"name" json:"name"`
	Provider string `yaml:"provider" json:"provider"`
}

type Experience struct {
	Company      string   `yaml:"company" json:"company"`
	Location     string   `yaml:"location" json:"location"`
	Role         string   `yaml:"role" json:"role"`
	DateRange    string   `yaml:"date_range" json:"dateRange"`
	Project      string   `yaml:"project" json:"project"`
	TechStack    []string `yaml:"tech_stack" json:"techStack"`
	Descriptions []string `yaml:"descriptions" json:"descriptions"`
}

type Project struct {
	Name         string   `yaml:"name" json:"name"`
	Role         string   `yaml:"role" json:"role"`
	DateRange    string   `yaml:"date_range" json:"dateRange"`
	Tagline      string   `yaml:"tagline" json:"tagline"`
	TechStack    []string `yaml:"tech_stack" json:"techStack"`
	Descriptions []string `yaml:"descriptions" json:"descriptions"`
}

type AdditionalPosition struct {
	Organization string   `yaml:"organization" json:"organization"`
	Location     string   `yaml:"location" json:"location"`
	Role         string   `yaml:"role" json:"role"`
	DateRange    string   `yaml:"date_range" json:"dateRange"`
	Project      string   `yaml:"project" json:"project"`
	Descriptions []string `yaml:"descriptions" json:"descriptions"`
}
