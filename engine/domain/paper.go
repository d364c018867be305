package domain

// Paper is the arXiv metadata entity served to the dashboard.
type Paper struct {
	ID            string        `json:"id"`
	ArxivID       string        `json:"arxivId"`
	Title         string        `json:"title"`
	Authors       []string      `json:"authors"`
	Abstract      string        `json:"abstract"`
	Categories    []string      `json:"categories"`
	PDFURL        string        `json:"pdfUrl"`
	PublishedDate string        `json:"publishedDate"`
	UpdatedDate   string        `json:"updatedDate"`
	Summary       *PaperSummary `json:"summary,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

// PaperSummary is the LLM-generated analysis of a paper.
type PaperSummary struct {
	Hook             string   `json:"hook"`
	Why              string   `json:"why"`
	What             string   `json:"what"`
	HowItFits        string   `json:"howItFits"`
	Motivation       string   `json:"motivation"`
	KeyContributions []string `json:"keyContributions"`
	RelevanceScore   float64  `json:"relevanceScore"`
}
