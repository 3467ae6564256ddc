package domain

import "time"

// Participant is a registered competitor. Immutable after registration.
type Participant struct {
	ID              int64     `json:"id"`
	TeamName        string    `json:"teamName"`
	ParticipantName string    `json:"participantName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Language        string    `json:"language"`
	Experience      string    `json:"experience"`
	TeamType        string    `json:"teamType"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Round is one challenge item. CorrectAnswer and Explanation are server-side only;
// clients receive a RoundView.
type Round struct {
	ID            int64  `json:"id" yaml:"-"`
	RoundNumber   int    `json:"roundNumber" yaml:"round_number"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	Language      string `json:"language" yaml:"language"`
	Difficulty    string `json:"difficulty" yaml:"difficulty"`
	Points        int    `json:"points" yaml:"points"`
	Hint          string `json:"hint" yaml:"hint"`
	TimeLimit     int    `json:"timeLimit" yaml:"time_limit"` // seconds
	CorrectAnswer string `json:"correctAnswer" yaml:"correct_answer"`
	Explanation   string `json:"explanation" yaml:"explanation"`
	IsActive      bool   `json:"isActive" yaml:"is_active"`
}

// RoundView is the client-facing projection of a Round. It has no answer key field.
type RoundView struct {
	ID          int64  `json:"id"`
	RoundNumber int    `json:"roundNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Difficulty  string `json:"difficulty"`
	Points      int    `json:"points"`
	Hint        string `json:"hint"`
	TimeLimit   int    `json:"timeLimit"`
}

// View strips the answer key and explanation.
func (r Round) View() RoundView {
	return RoundView{
		ID:          r.ID,
		RoundNumber: r.RoundNumber,
		Title:       r.Title,
		Description: r.Description,
		Language:    r.Language,
		Difficulty:  r.Difficulty,
		Points:      r.Points,
		Hint:        r.Hint,
		TimeLimit:   r.TimeLimit,
	}
}

// Submission is one recorded answer attempt. Rows are never edited.
type Submission struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participantId"`
	RoundID       int64     `json:"roundId"`
	Answer        string    `json:"answer"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsEarned  int       `json:"pointsEarned"`
	TimeTaken     *int      `json:"timeTaken,omitempty"` // seconds; nil when the client did not report it
	SubmittedAt   time.Time `json:"submittedAt"`
}

// LeaderboardEntry is the materialized aggregate of one participant's submissions.
type LeaderboardEntry struct {
	ParticipantID   int64     `json:"participantId"`
	TotalPoints     int       `json:"totalPoints"`
	RoundsCompleted int       `json:"roundsCompleted"`
	AverageTime     float64   `json:"averageTime"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RankedEntry is a leaderboard row joined with identity fields and its rank position.
type RankedEntry struct {
	Rank            int     `json:"rank"`
	ParticipantID   int64   `json:"participantId"`
	TeamName        string  `json:"teamName"`
	ParticipantName string  `json:"participantName"`
	Language        string  `json:"language"`
	TotalPoints     int     `json:"totalPoints"`
	RoundsCompleted int     `json:"roundsCompleted"`
	AverageTime     float64 `json:"averageTime"`
}

// LeaderboardQuery selects a ranked view. An empty Language means no filter.
type LeaderboardQuery struct {
	Language string
	Limit    int
}

// Progress reports one participant's standing straight from submission rows.
type Progress struct {
	ParticipantID    int64   `json:"participantId"`
	TeamName         string  `json:"teamName"`
	ParticipantName  string  `json:"participantName"`
	Language         string  `json:"language"`
	TotalSubmissions int     `json:"totalSubmissions"`
	TotalPoints      int     `json:"totalPoints"`
	CorrectAnswers   int     `json:"correctAnswers"`
	AverageTime      float64 `json:"averageTime"`
}

// LanguageCount is one bucket of the per-language participant breakdown.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// SystemStats are system-wide read-only aggregates.
type SystemStats struct {
	TotalParticipants  int             `json:"totalParticipants"`
	TotalSubmissions   int             `json:"totalSubmissions"`
	CorrectSubmissions int             `json:"correctSubmissions"`
	Languages          []LanguageCount `json:"languages"`
}

// SubmitResult is returned to the caller after a submission is recorded.
type SubmitResult struct {
	SubmissionID int64  `json:"submissionId"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	Explanation  string `json:"explanation"`
}
