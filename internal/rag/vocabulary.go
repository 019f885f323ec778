package rag

// EmbeddingDim is the fixed embedding vector length. Only the first
// len(vocabulary) slots can be nonzero; the rest leave room to swap in a
// learned model without touching stored vector shapes.
const EmbeddingDim = 384

// vocabulary is the hand-curated term list the embedder counts against.
// Index order is part of the embedding format: appending is safe, reordering
// invalidates every stored vector.
var vocabulary = []string{
	// languages
	"javascript", "typescript", "python", "java", "golang", "rust", "ruby",
	"php", "swift", "kotlin", "scala", "cpp", "csharp", "html", "css", "sql",
	"bash", "dart", "elixir", "haskell",
	// frontend
	"react", "nextjs", "vue", "nuxt", "angular", "svelte", "redux", "tailwind",
	"bootstrap", "sass", "webpack", "vite", "jquery", "dom", "responsive",
	"accessibility", "animation", "component", "frontend", "spa",
	// backend
	"node", "express", "django", "flask", "fastapi", "spring", "rails",
	"laravel", "gin", "graphql", "rest", "api", "grpc", "websocket",
	"microservices", "backend", "server", "middleware", "authentication",
	"authorization",
	// data
	"database", "postgres", "postgresql", "mysql", "mongodb", "redis",
	"sqlite", "firebase", "firestore", "supabase", "elasticsearch", "kafka",
	"rabbitmq", "cache", "migration", "orm", "query", "index", "schema",
	"transaction",
	// cloud / infra
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "serverless",
	"lambda", "vercel", "netlify", "heroku", "nginx", "linux", "cloud",
	"deployment", "devops", "pipeline", "monitoring", "scaling",
	"infrastructure",
	// ai / ml
	"machine", "learning", "neural", "model", "training", "tensorflow",
	"pytorch", "llm", "openai", "gemini", "embedding", "vector", "prompt",
	"chatbot", "nlp", "classification", "regression", "transformer", "rag",
	"inference",
	// practices
	"agile", "scrum", "testing", "tdd", "cicd", "git", "github", "gitlab",
	"review", "refactoring", "debugging", "optimization", "performance",
	"security", "architecture", "design", "pattern", "documentation",
	"maintenance", "automation",
	// career
	"experience", "education", "degree", "university", "college", "bachelor",
	"master", "certification", "internship", "job", "work", "employment",
	"position", "role", "responsibility", "achievement", "award", "skill",
	"project", "portfolio", "team", "lead", "senior", "junior", "developer",
	"engineer", "fullstack", "mentor", "collaboration", "communication",
	"leadership", "management", "freelance", "startup", "company", "client",
	"product", "launch", "contribution", "opensource",
}

// stopwords excluded from keyword extraction and keyword-search tokenization.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "did": {},
	"its": {}, "let": {}, "she": {}, "too": {}, "use": {}, "with": {},
	"that": {}, "this": {}, "from": {}, "they": {}, "have": {}, "been": {},
	"were": {}, "what": {}, "when": {}, "your": {},
}

// importanceKeywords each add one point to a chunk's importance score.
// Career signals and core technology terms both count: a chunk naming
// concrete technologies is worth surfacing over generic prose.
var importanceKeywords = []string{
	"experience", "expert", "senior", "lead", "architect", "achievement",
	"award", "certified", "production", "launched", "shipped", "founded",
	"react", "typescript", "javascript", "python", "golang", "full-stack",
	"fullstack",
}

// sectionKeywords is tested in order; the first matching label wins. The
// order is load-bearing for mixed chunks, so keep it stable.
var sectionKeywords = []struct {
	label    string
	keywords []string
}{
	{SectionExperience, []string{"experience", "work", "employment"}},
	{SectionEducation, []string{"education", "degree", "university"}},
	{SectionSkills, []string{"skill", "technology", "programming"}},
	{SectionProjects, []string{"project", "portfolio", "built"}},
	{SectionContact, []string{"contact", "email", "phone"}},
}

// Section labels assigned by the chunker.
const (
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
	SectionProjects   = "projects"
	SectionContact    = "contact"
	SectionGeneral    = "general"
)

// vocabularyIndex maps each vocabulary term to its vector slot.
var vocabularyIndex = func() map[string]int {
	m := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		if _, dup := m[term]; !dup {
			m[term] = i
		}
	}
	return m
}()
