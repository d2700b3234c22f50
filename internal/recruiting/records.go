package recruiting

import "time"

// Brief is the narrative summary of one candidate document.
type Brief struct {
	ID           string    `json:"id"`
	OpeningID    string    `json:"opening_id"`
	OpeningTitle string    `json:"opening_title"`
	Content      string    `json:"content"`
	Conclusion   string    `json:"conclusion"`
	File         string    `json:"file"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Analysis is the structured score of one candidate document for one opening.
type Analysis struct {
	ID            string `json:"id"`
	OpeningID     string `json:"opening_id"`
	OpeningTitle  string `json:"opening_title"`
	OpeningFolder string `json:"opening_folder"`
	BriefID       string `json:"brief_id"`
	// Title is the candidate name.
	Title                string    `json:"title"`
	FormalEducation      string    `json:"formal_education"`
	SoftSkills           []string  `json:"soft_skills"`
	HardSkills           []string  `json:"hard_skills"`
	Local                string    `json:"local"`
	Level                string    `json:"level"`
	Availability         string    `json:"availability"`
	Score                float64   `json:"score"`
	TotalExperienceYears float64   `json:"total_experience_years"`
	ContentHash          string    `json:"content_hash"`
	CreatedAt            time.Time `json:"created_at"`
}

// FileRecord marks a document content as processed for an opening.
type FileRecord struct {
	ID           string    `json:"id"`
	FileID       string    `json:"file_id"`
	OpeningID    string    `json:"opening_id"`
	OpeningTitle string    `json:"opening_title"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
