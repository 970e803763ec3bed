package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/readiness"
	"github.com/abhisek/placeprep/internal/store"
)

type questionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// testView is a test as shown to a candidate. It never carries answers.
type testView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Type             string         `json:"type"`
	TimeLimitMinutes int            `json:"time_limit"`
	Questions        []questionView `json:"questions"`
}

func newTestView(def assessment.TestDefinition) testView {
	v := testView{
		ID:               def.ID,
		Title:            def.Title,
		Type:             def.Type,
		TimeLimitMinutes: def.TimeLimitMinutes,
		Questions:        make([]questionView, len(def.Questions)),
	}
	for i, q := range def.Questions {
		v.Questions[i] = questionView{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	}
	return v
}

func (s *Server) listTests(c *gin.Context) {
	tests, err := s.tests.ListTests(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if tests == nil {
		tests = []store.TestSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}

func (s *Server) getTest(c *gin.Context) {
	def, err := s.tests.GetDefinition(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTestView(def))
}

func (s *Server) startAttempt(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	def, err := s.tests.GetDefinition(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := s.attempts.StartAttempt(ctx, def.ID, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attempt_id":        id,
		"remaining_seconds": def.TimeLimitMinutes * 60,
		"test":              newTestView(def),
	})
}

type submitRequest struct {
	Answers []assessment.Answer `json:"answers"`
	Trigger assessment.Trigger  `json:"trigger"`
}

type reviewView struct {
	Index         int    `json:"index"`
	Prompt        string `json:"prompt"`
	ChosenIndex   *int   `json:"chosen_index"`
	ChosenOption  string `json:"chosen_option"`
	CorrectOption string `json:"correct_option"`
	Correct       bool   `json:"correct"`
}

type resultView struct {
	AttemptID string       `json:"attempt_id"`
	Score     int          `json:"score"`
	Correct   int          `json:"correct"`
	Incorrect int          `json:"incorrect"`
	Skipped   int          `json:"skipped"`
	Total     int          `json:"total"`
	Review    []reviewView `json:"review"`

	// Saved is false when the final write failed. The attempt stays open
	// and the same PATCH may be sent again.
	Saved   bool   `json:"saved"`
	Warning string `json:"warning,omitempty"`
}

func newResultView(attemptID string, res *assessment.ScoredResult) resultView {
	v := resultView{
		AttemptID: attemptID,
		Score:     res.Percentage,
		Correct:   res.Correct,
		Incorrect: res.Incorrect,
		Skipped:   res.Skipped,
		Total:     res.Total(),
		Review:    make([]reviewView, len(res.Review)),
	}
	for i, e := range res.Review {
		v.Review[i] = reviewView{
			Index:         e.Index,
			Prompt:        e.Prompt,
			ChosenIndex:   e.ChosenIndex,
			ChosenOption:  e.ChosenOption,
			CorrectOption: e.CorrectOption,
			Correct:       e.Correct,
		}
	}
	return v
}

// submitAttempt scores the raw answers against the stored definition and
// applies the single final update. Client-computed scores are not trusted.
func (s *Server) submitAttempt(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	switch req.Trigger {
	case "":
		req.Trigger = assessment.TriggerManual
	case assessment.TriggerManual, assessment.TriggerTimer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown trigger %q", req.Trigger)})
		return
	}

	attempt, err := s.attempts.GetAttempt(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if attempt.UserID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "attempt belongs to another user"})
		return
	}
	if attempt.Completed() {
		alreadySubmitted(c, attempt)
		return
	}

	def, err := s.tests.GetDefinition(ctx, attempt.TestID)
	if err != nil {
		writeError(c, err)
		return
	}
	answers, err := normalizeAnswers(def, req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}

	res := assessment.Score(def.Questions, answers)
	update := assessment.AttemptUpdate{
		AttemptID:   attempt.ID,
		CompletedAt: s.now().UTC(),
		Score:       res.Percentage,
		Answers:     answers,
	}
	err = s.persister.CompleteAttempt(ctx, update)
	switch {
	case errors.Is(err, assessment.ErrAttemptCompleted):
		// A concurrent submission won.
		stored, gerr := s.attempts.GetAttempt(ctx, attempt.ID)
		if gerr != nil {
			writeError(c, gerr)
			return
		}
		alreadySubmitted(c, stored)
		return
	case errors.Is(err, store.ErrAttemptNotFound):
		writeError(c, err)
		return
	}

	s.metrics.SubmittedVia(req.Trigger)
	view := newResultView(attempt.ID, res)
	if err != nil {
		s.metrics.PersistFailed()
		warn("save attempt %s: %v", attempt.ID, err)
		view.Warning = "Your result was not saved: " + err.Error() + ". Submit again to retry."
		c.JSON(http.StatusAccepted, view)
		return
	}
	view.Saved = true
	s.invalidate(ctx, attempt.UserID)

	c.JSON(http.StatusOK, view)
}

// alreadySubmitted answers a submission for a completed attempt with the
// stored score.
func alreadySubmitted(c *gin.Context, a *store.Attempt) {
	body := gin.H{"error": "attempt already submitted", "attempt_id": a.ID}
	if a.Score != nil {
		body["score"] = *a.Score
	}
	c.JSON(http.StatusConflict, body)
}

// normalizeAnswers pads answers to the question count and checks every
// selection is a valid option index.
func normalizeAnswers(def assessment.TestDefinition, raw []assessment.Answer) ([]assessment.Answer, error) {
	if len(raw) > len(def.Questions) {
		return nil, fmt.Errorf("%w: %d answers for %d questions", assessment.ErrIndexOutOfRange, len(raw), len(def.Questions))
	}
	out := make([]assessment.Answer, len(def.Questions))
	for i, a := range raw {
		if a == nil {
			continue
		}
		if *a < 0 || *a >= len(def.Questions[i].Options) {
			return nil, fmt.Errorf("question %d: %w: %d", i+1, assessment.ErrOptionOutOfRange, *a)
		}
		v := *a
		out[i] = &v
	}
	return out, nil
}

func (s *Server) getReadiness(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c).ID

	compute := func(ctx context.Context) (readiness.Report, error) {
		return s.computeReadiness(ctx, userID)
	}

	var (
		report readiness.Report
		err    error
	)
	if s.cache != nil {
		report, err = s.cache.GetOrCompute(ctx, userID, compute)
	} else {
		report, err = compute(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) computeReadiness(ctx context.Context, userID string) (readiness.Report, error) {
	snap, err := s.activity.Snapshot(ctx, userID)
	if err != nil {
		return readiness.Report{}, err
	}
	catalog, err := s.activity.Catalog(ctx)
	if err != nil {
		return readiness.Report{}, err
	}
	return readiness.Aggregate(snap, catalog), nil
}

type speechRequest struct {
	Transcript string `json:"transcript" binding:"required"`
	Question   string `json:"question"`
}

func (s *Server) analyzeSpeech(c *gin.Context) {
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech analysis is not configured"})
		return
	}

	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)

	analysis := s.analyzer.Analyze(ctx, req.Transcript, req.Question)
	s.metrics.SpeechAnalysis(analysis.Fallback)

	id, err := s.speech.SaveSession(ctx, store.SpeechSession{
		UserID:          user.ID,
		Question:        req.Question,
		Transcript:      req.Transcript,
		FluencyScore:    analysis.FluencyScore,
		GrammarScore:    analysis.GrammarScore,
		ConfidenceScore: analysis.ConfidenceScore,
		FillerCount:     analysis.FillerCount,
		WPM:             analysis.WPM,
		Feedback:        analysis.Feedback,
	})
	if err != nil {
		warn("save speech session: %v", err)
	} else {
		s.invalidate(ctx, user.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":       id,
		"fluency_score":    analysis.FluencyScore,
		"grammar_score":    analysis.GrammarScore,
		"confidence_score": analysis.ConfidenceScore,
		"filler_count":     analysis.FillerCount,
		"wpm":              analysis.WPM,
		"feedback":         analysis.Feedback,
	})
}

func (s *Server) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), userID); err != nil {
		warn("invalidate readiness cache for %s: %v", userID, err)
	}
}

func warn(format string, args ...any) {
	fmt.Fprintf(gin.DefaultErrorWriter, "warning: "+format+"\n", args...)
}
