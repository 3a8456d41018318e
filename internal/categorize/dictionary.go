package categorize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Dictionary holds the static keyword list of every category. Entries are compared by
// TermKey, so their casing only matters for readability.
type Dictionary map[types.Category][]string

// DefaultDictionary returns the built-in keyword lists.
func DefaultDictionary() Dictionary {
	return Dictionary{
		types.HardSkills: {
			"Java", "JavaScript", "TypeScript", "Python", "Go", "C++", "C#", "Ruby", "Rust",
			"Scala", "Kotlin", "Swift", "PHP", "SQL", "NoSQL", "HTML", "CSS", "React",
			"Angular", "Vue.js", "Node.js", "Django", "Flask", "Spring", "Spring Boot", ".NET",
			"GraphQL", "REST", "gRPC", "Microservices", "Machine Learning", "Deep Learning",
			"Data Science", "Data Analysis", "Statistics", "NLP", "Natural Language Processing",
			"Computer Vision", "Algorithms", "Data Structures", "Distributed Systems",
			"Cloud Computing", "AWS", "GCP", "Azure", "Networking", "Cybersecurity", "DevOps",
			"CI/CD", "Unit Testing", "System Design", "ETL", "Big Data", "full-stack",
			"front-end", "back-end", "Ruby on Rails", "Pandas", "NumPy", "Spark", "Hadoop",
			"Kafka", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Agile",
			"Scrum", "Kanban", "Version Control", "Linux Administration",
		},
		types.SoftSkills: {
			"Communication", "Leadership", "Teamwork", "Collaboration", "Problem Solving",
			"Critical Thinking", "Time Management", "Adaptability", "Creativity", "Mentoring",
			"Mentorship", "Negotiation", "Presentation", "Organization", "Attention to Detail",
			"Ownership", "Initiative", "Empathy", "Interpersonal", "Stakeholder Management",
			"Conflict Resolution", "Decision Making", "Self-motivated", "Analytical",
			"Curiosity", "Coaching", "Flexibility", "Accountability",
		},
		types.JobTitles: {
			"Software Engineer", "Software Developer", "Developer", "Engineer", "Programmer",
			"Data Scientist", "Data Engineer", "Data Analyst", "Product Manager",
			"Project Manager", "DevOps Engineer", "Site Reliability Engineer", "Architect",
			"Designer", "Consultant", "Analyst", "Manager", "Director", "Intern",
			"Administrator", "Technician", "Team Lead", "Tech Lead", "Scrum Master",
			"QA Engineer", "CTO",
		},
		types.Certifications: {
			"PMP", "CISSP", "CCNA", "CCNP", "CPA", "CFA", "CompTIA", "Security+",
			"AWS Certified", "CKA", "CKAD", "CSM", "ITIL", "Six Sigma", "PRINCE2", "OCP",
			"MCSE", "TOGAF", "CISM", "CEH", "PSM",
		},
		types.Tools: {
			"Docker", "Kubernetes", "Terraform", "Ansible", "Jenkins", "Git", "GitHub",
			"GitLab", "Jira", "Confluence", "Excel", "Tableau", "Power BI", "Figma",
			"Photoshop", "Slack", "Postman", "VS Code", "Visual Studio", "IntelliJ", "Eclipse",
			"Linux", "Bash", "Grafana", "Prometheus", "Datadog", "Splunk", "Salesforce", "SAP",
			"TensorFlow", "PyTorch", "Webpack", "Vim", "Airflow", "Snowflake", "Looker",
		},
	}
}

// LoadDictionary reads extra keyword lists from a JSON (.json) or YAML (.yaml, .yml)
// file mapping category names to terms, e.g. {"tools": ["Bazel", "Buildkite"]}.
func LoadDictionary(path string) (Dictionary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}

	var raw map[string][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported dictionary format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file %s: %w", path, err)
	}

	dict := make(Dictionary, len(raw))
	for name, terms := range raw {
		c, err := types.ParseCategory(name)
		if err != nil || !c.Valid() {
			return nil, fmt.Errorf("dictionary file %s: unknown category %q", path, name)
		}
		dict[c] = append(dict[c], terms...)
	}
	return dict, nil
}

// Merge returns a new dictionary holding d's entries followed by extra's. A term listed
// under two categories resolves in the matcher's category order.
func (d Dictionary) Merge(extra Dictionary) Dictionary {
	out := make(Dictionary, len(d))
	for c, terms := range d {
		out[c] = append([]string{}, terms...)
	}
	for c, terms := range extra {
		out[c] = append(out[c], terms...)
	}
	return out
}
