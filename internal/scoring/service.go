package scoring

import (
	"context"
	"log"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/lang"
)

// Service ties the catalog loaders, the engine and the resolver into one
// request/response computation. Each Compute call is self-contained; the
// catalogs it loads are read-only for the duration of the run.
type Service struct {
	store  catalog.Store
	engine *Engine
	logger *log.Logger
}

func NewService(store catalog.Store, logger *log.Logger) *Service {
	return &Service{store: store, engine: NewEngine(logger), logger: logger}
}

// Compute scores one answer set and resolves its final profile.
//
// targetLang selects the catalogs the result is expressed in; originLang is
// the language the respondent answered in. When they differ, labeled answers
// go through the positional translation path.
//
// A missing question catalog is not an error: it yields an empty result
// (undetermined profile), and the caller decides whether to go on
// (typically: skip report delivery).
func (s *Service) Compute(ctx context.Context, answers map[string]string, testType, targetLang, originLang string) (Result, error) {
	targetLang = lang.LanguageCode(targetLang)
	originLang = lang.LanguageCode(originLang)
	if originLang == "" {
		originLang = targetLang
	}

	if IsEnvironmentScan(testType) {
		scan := ScanEnvironment(answers)
		res := Result{
			Scores:     scan.Scores(),
			Profile:    scan.Title,
			CodeToName: scan.CodeToName(),
			Fields:     scan.Flatten(),
		}
		res.Fields["profile_final"] = scan.Title
		return res, nil
	}

	profiles := s.store.LoadProfiles(ctx, testType, targetLang)
	target, err := s.store.LoadQuestions(ctx, testType, targetLang)
	if err != nil {
		return Result{}, err
	}
	if target == nil {
		if s.logger != nil {
			s.logger.Printf("scoring: no question catalog for %s/%s, returning empty result", testType, targetLang)
		}
		return emptyResult(), nil
	}

	var scores ScoreMap
	if originLang == targetLang {
		scores = s.engine.Score(answers, target)
	} else {
		origin, err := s.store.LoadQuestions(ctx, testType, originLang)
		if err != nil {
			return Result{}, err
		}
		if origin == nil {
			if s.logger != nil {
				s.logger.Printf("scoring: no question catalog for %s/%s, returning empty result", testType, originLang)
			}
			return emptyResult(), nil
		}
		scores = s.engine.ScoreTranslated(answers, origin, target)
	}

	var thresholds []catalog.ThresholdRule
	if thresholdTestTypes[lang.Fold(testType)] {
		thresholds = s.store.LoadThresholds(ctx, testType, targetLang)
	}
	resolution := ResolveProfile(scores, testType, thresholds)
	return AssembleResult(scores, resolution, profiles), nil
}

func emptyResult() Result {
	return Result{
		Scores:     ScoreMap{},
		Profile:    Undetermined,
		CodeToName: map[string]string{},
		Fields:     map[string]string{},
	}
}
