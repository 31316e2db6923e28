package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

// Outcome reasons reported for each evidence path.
const (
	ReasonIdentityMatched  = "roll number and name matched"
	ReasonIdentityMismatch = "id card text did not match roll number and name, manual review"
	ReasonOCRFailed        = "ocr failed, manual review"
	ReasonCorporateEmail   = "corporate work email"
	ReasonCardUploaded     = "manual review, card uploaded"
)

const (
	minGraduationYear      = 1900
	maxGraduationYearAhead = 10
)

// Strategy labels used for metrics and logs.
const (
	StrategyIDCardOCR      = "id_card_ocr"
	StrategyCorporateEmail = "corporate_email"
	StrategyManualReview   = "manual_review"
)

// Extractor pulls raw text out of a stored identity document.
type Extractor interface {
	Extract(ctx context.Context, imageRef string) (string, error)
}

// Recorder receives verification telemetry.
type Recorder interface {
	ObserveOutcome(role model.Role, strategy string, verified bool)
	ObserveExtraction(duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOutcome(model.Role, string, bool) {}
func (noopRecorder) ObserveExtraction(time.Duration, error) {}

// Request is the evidence collected for one registration attempt.
type Request struct {
	Role           model.Role
	Name           string
	RollNumber     string
	GraduationYear *int
	WorkEmail      string
	EvidenceRef    string
}

// Orchestrator selects the evidence strategy for a role and produces exactly
// one outcome per attempt. It never retries.
type Orchestrator struct {
	extractor  Extractor
	classifier *DomainClassifier
	recorder   Recorder
	logger     *logger.Logger
}

// NewOrchestrator creates an Orchestrator. A nil recorder disables telemetry.
func NewOrchestrator(extractor Extractor, classifier *DomainClassifier, recorder Recorder, logger *logger.Logger) *Orchestrator {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Orchestrator{
		extractor:  extractor,
		classifier: classifier,
		recorder:   recorder,
		logger:     logger,
	}
}

// Validate checks the role specific shape of req without touching any
// external dependency. Failures are *InputError.
func (o *Orchestrator) Validate(req Request) error {
	switch req.Role {
	case model.RoleStudent:
		if strings.TrimSpace(req.RollNumber) == "" {
			return &InputError{Reason: reasonRollNumberRequired}
		}
		if req.EvidenceRef == "" {
			return &InputError{Reason: reasonStudentCardRequired}
		}
		return nil
	case model.RoleAlumni:
		if req.GraduationYear == nil || *req.GraduationYear <= 0 {
			return &InputError{Reason: reasonGraduationYearRequired}
		}
		if !graduationYearInRange(*req.GraduationYear, time.Now()) {
			return &InputError{Reason: reasonGraduationYearRange}
		}
		if o.hasCorporateEmail(req) {
			return nil
		}
		if req.EvidenceRef == "" {
			return &InputError{Reason: reasonCorporateEmailOrCard}
		}
		return nil
	case model.RoleAdmin:
		return &InputError{Reason: reasonAdminNotAllowed}
	default:
		return &InputError{Reason: reasonUnsupportedRole}
	}
}

// graduationYearInRange accepts years from minGraduationYear up to
// maxGraduationYearAhead years past now.
func graduationYearInRange(year int, now time.Time) bool {
	return year >= minGraduationYear && year <= now.Year()+maxGraduationYearAhead
}

// Verify validates req and evaluates its evidence. Evidence failures never
// surface as errors: they degrade the outcome to manual review.
func (o *Orchestrator) Verify(ctx context.Context, req Request) (model.VerificationOutcome, error) {
	if err := o.Validate(req); err != nil {
		return model.VerificationOutcome{}, err
	}

	var (
		outcome  model.VerificationOutcome
		strategy string
	)
	switch req.Role {
	case model.RoleStudent:
		outcome, strategy = o.verifyStudent(ctx, req), StrategyIDCardOCR
	case model.RoleAlumni:
		outcome, strategy = o.verifyAlumni(req)
	default:
		return model.VerificationOutcome{}, fmt.Errorf("no verification strategy for role %q", req.Role)
	}

	o.recorder.ObserveOutcome(req.Role, strategy, outcome.Verified)

	o.logger.Info("Verification: outcome computed",
		"role", req.Role,
		"strategy", strategy,
		"verified", outcome.Verified,
		"reason", outcome.Reason)
	if outcome.RawEvidence != "" {
		o.logger.Debug("Verification: extracted evidence",
			"role", req.Role,
			"text", outcome.RawEvidence)
	}

	return outcome, nil
}

func (o *Orchestrator) verifyStudent(ctx context.Context, req Request) model.VerificationOutcome {
	start := time.Now()
	text, err := o.extractor.Extract(ctx, req.EvidenceRef)
	o.recorder.ObserveExtraction(time.Since(start), err)
	if err != nil {
		o.logger.Warn("Verification: text extraction failed, manual verification required",
			"evidence_ref", req.EvidenceRef,
			"error", err.Error())
		return model.VerificationOutcome{Verified: false, Reason: ReasonOCRFailed}
	}

	normalized := Normalize(text)
	if MatchIdentity(normalized, req.Name, req.RollNumber) {
		return model.VerificationOutcome{Verified: true, Reason: ReasonIdentityMatched, RawEvidence: normalized}
	}

	return model.VerificationOutcome{Verified: false, Reason: ReasonIdentityMismatch, RawEvidence: normalized}
}

// verifyAlumni never reads the uploaded card: card evidence always goes to
// manual review.
func (o *Orchestrator) verifyAlumni(req Request) (model.VerificationOutcome, string) {
	if o.hasCorporateEmail(req) {
		return model.VerificationOutcome{Verified: true, Reason: ReasonCorporateEmail}, StrategyCorporateEmail
	}
	return model.VerificationOutcome{Verified: false, Reason: ReasonCardUploaded}, StrategyManualReview
}

func (o *Orchestrator) hasCorporateEmail(req Request) bool {
	return req.WorkEmail != "" && o.classifier.Classify(req.WorkEmail) == Corporate
}
