package ml

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// State of the inference service.
type State int32

const (
	StateUnloaded State = iota
	StateLoaded
	StateServing
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateServing:
		return "serving"
	default:
		return "unloaded"
	}
}

const predictionCacheSize = 512

// InferenceService owns the currently loaded artifact. The artifact is shared
// read-only across request handlers and replaced whole on reload, so callers
// never observe a half-updated model.
type InferenceService struct {
	artifact atomic.Pointer[Artifact]
	state    atomic.Int32
	cache    *lru.Cache[string, Prediction]
	log      *zap.Logger
}

// NewInferenceService creates a service in the Unloaded state.
func NewInferenceService(log *zap.Logger) *InferenceService {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New[string, Prediction](predictionCacheSize)
	return &InferenceService{cache: cache, log: log}
}

// Load reads the artifact at path and swaps it in atomically. On failure the
// service keeps its previous state and reports itself unhealthy instead of
// crashing the process.
func (s *InferenceService) Load(path string) error {
	artifact, err := LoadArtifact(path)
	if err != nil {
		s.log.Warn("artifact load failed",
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	s.artifact.Store(artifact)
	s.cache.Purge()
	s.state.Store(int32(StateLoaded))
	s.log.Info("artifact loaded",
		zap.String("path", path),
		zap.String("schema_version", artifact.SchemaVersion),
		zap.Time("trained_at", artifact.TrainedAt))
	return nil
}

// State reports where the service is in Unloaded -> Loaded -> Serving.
func (s *InferenceService) State() State {
	return State(s.state.Load())
}

// Loaded reports whether an artifact is available for predictions.
func (s *InferenceService) Loaded() bool {
	return s.artifact.Load() != nil
}

// Artifact returns the currently loaded artifact, or nil. Callers must treat
// it as read-only.
func (s *InferenceService) Artifact() *Artifact {
	return s.artifact.Load()
}

// Predict scores one validated feature vector. Predict is a pure function of
// the loaded artifact, so identical vectors are served from an LRU cache
// without changing the answer. Returns ErrModelNotLoaded when no artifact is
// loaded.
func (s *InferenceService) Predict(vector []float64) (Prediction, error) {
	artifact := s.artifact.Load()
	if artifact == nil {
		return Prediction{}, ErrModelNotLoaded
	}
	s.state.Store(int32(StateServing))

	key := vectorKey(artifact.TrainedAt.UnixNano(), vector)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	prediction, err := artifact.Predict(vector)
	if err != nil {
		return Prediction{}, err
	}
	s.cache.Add(key, prediction)
	return prediction, nil
}

// vectorKey hashes the artifact generation and the raw vector so a reload
// never serves stale cached predictions.
func vectorKey(generation int64, vector []float64) string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(generation))
	h.Write(buf[:])
	for _, v := range vector {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return string(h.Sum(nil))
}
