package services

import (
	"fmt"
	"sort"
	"strings"

	"prepcoach/domain/core/entities"
)

// topicCatalogue maps keywords found in a job description to preparation topics
var topicCatalogue = map[string][]string{
	"go":            {"Go concurrency: goroutines, channels, context", "Go error handling and interfaces"},
	"golang":        {"Go concurrency: goroutines, channels, context", "Go error handling and interfaces"},
	"python":        {"Python data model and generators", "Python packaging and typing"},
	"java":          {"JVM memory model and garbage collection", "Java collections and concurrency utilities"},
	"typescript":    {"TypeScript type system", "Async patterns in JavaScript runtimes"},
	"react":         {"React rendering and state management", "Frontend performance"},
	"sql":           {"SQL joins, indexes and query plans", "Transaction isolation levels"},
	"postgres":      {"SQL joins, indexes and query plans", "Transaction isolation levels"},
	"aws":           {"AWS core services and IAM", "Serverless architectures"},
	"kubernetes":    {"Kubernetes workloads and scheduling", "Container networking"},
	"distributed":   {"Consistency models and replication", "Failure handling and idempotency"},
	"microservices": {"Service boundaries and contracts", "Observability: logs, metrics, traces"},
	"machine":       {"Supervised learning fundamentals", "Model evaluation and metrics"},
	"security":      {"OWASP top ten", "Authentication and authorization flows"},
	"lead":          {"Technical leadership and mentoring", "Driving cross-team decisions"},
	"manager":       {"People management scenarios", "Planning and prioritisation"},
}

var baseTopics = []string{
	"Data structures and algorithms refresher",
	"System design fundamentals",
}

// PrepPlanGenerator derives a preparation plan from interview details.
// The output depends only on its input.
type PrepPlanGenerator struct{}

// NewPrepPlanGenerator creates a generator
func NewPrepPlanGenerator() *PrepPlanGenerator {
	return &PrepPlanGenerator{}
}

// Generate builds the preparation sections for an interview
func (g *PrepPlanGenerator) Generate(details entities.InterviewDetails) []entities.PrepSection {
	role := strings.TrimSpace(details.JobTitle)
	company := strings.TrimSpace(details.Company)
	if company == "" {
		company = "the company"
	}

	technical := g.topicsFor(role + " " + details.JobDescription)

	questions := make([]string, 0, len(technical))
	for _, topic := range technical {
		questions = append(questions, fmt.Sprintf("Walk through a problem you solved involving %s.", strings.ToLower(topic)))
	}

	return []entities.PrepSection{
		{
			Title:     "Role fundamentals",
			Topics:    technical,
			Questions: questions,
		},
		{
			Title: "Company research",
			Topics: []string{
				fmt.Sprintf("Products and customers of %s", company),
				fmt.Sprintf("Recent news and engineering blog posts from %s", company),
			},
			Questions: []string{
				fmt.Sprintf("Why do you want to work at %s?", company),
				fmt.Sprintf("What would you improve in a product of %s?", company),
			},
		},
		{
			Title:  "Behavioral",
			Topics: []string{"STAR stories", "Conflict and feedback", "Ownership and impact"},
			Questions: []string{
				fmt.Sprintf("Tell me about a time you had the most impact as a %s.", role),
				"Describe a disagreement with a teammate and how it was resolved.",
				"Tell me about a project that failed and what you learned.",
			},
		},
	}
}

func (g *PrepPlanGenerator) topicsFor(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	seen := make(map[string]bool)
	var topics []string
	for _, w := range words {
		for _, topic := range topicCatalogue[w] {
			if !seen[topic] {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}
	sort.Strings(topics)

	for _, topic := range baseTopics {
		if !seen[topic] {
			topics = append(topics, topic)
		}
	}
	return topics
}
