package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

// Weights tune the javanese placement heuristic.
type Weights struct {
	WWin       int `json:"w_win"`
	WThreat    int `json:"w_threat"`
	WOverwrite int `json:"w_overwrite"`
	WBlock     int `json:"w_block"`
	WBuild     int `json:"w_build"`
	WCardVal   int `json:"w_cardval"`

	BonusThreatMid      int `json:"bonus_threat_mid"`
	BonusThreatEdge     int `json:"bonus_threat_edge"`
	BonusSmallestInHand int `json:"bonus_smallest"`

	BoardSize int `json:"board_size"`
}

// Validate rejects weights the heuristic cannot use.
func (w Weights) Validate() error {
	if w.WWin <= 0 {
		return errors.New("w_win must be positive")
	}
	for _, v := range []int{w.WThreat, w.WOverwrite, w.WBlock, w.WBuild, w.WCardVal,
		w.BonusThreatMid, w.BonusThreatEdge, w.BonusSmallestInHand} {
		if v < 0 {
			return errors.New("weights must not be negative")
		}
	}
	if w.BoardSize < 5 || w.BoardSize > 15 {
		return errors.New("board_size must be between 5 and 15")
	}
	return nil
}

// LiveWeights can be swapped while bots are playing. New games pick up the
// board size; running games score their next placement with the new values.
type LiveWeights struct {
	mu sync.RWMutex
	w  Weights
}

func NewLiveWeights(w Weights) *LiveWeights {
	return &LiveWeights{w: w}
}

func (l *LiveWeights) Get() Weights {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.w
}

func (l *LiveWeights) Set(w Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.w = w
	l.mu.Unlock()
	return nil
}

// Depths are minimax search depths per difficulty.
type Depths struct {
	Beginner     int `json:"beginner"`
	Intermediate int `json:"intermediate"`
	Expert       int `json:"expert"`
}

type Config struct {
	HTTPAddr string

	StoreDriver string // memory | sqlite
	SQLitePath  string

	Depths     Depths
	AIMaxSteps int
	AIRetries  int

	IdleTimeout     time.Duration
	RoomTTL         time.Duration
	JanitorInterval time.Duration

	// Seed fixes the random source; 0 seeds from the clock. When
	// ServerSeed is set the HMAC source is used instead.
	Seed       int64
	ServerSeed string
	ClientSeed string

	LogDev bool

	Weights Weights
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func DefaultWeights() Weights {
	return Weights{
		WWin:                10000,
		WThreat:             200,
		WOverwrite:          125,
		WBlock:              70,
		WBuild:              60,
		WCardVal:            1,
		BonusThreatMid:      75,
		BonusThreatEdge:     50,
		BonusSmallestInHand: 60,
		BoardSize:           9,
	}
}

func Load() Config {
	w := DefaultWeights()
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		StoreDriver: getenv("STORE_DRIVER", "memory"),
		SQLitePath:  getenv("SQLITE_PATH", "tabletop.db"),
		Depths: Depths{
			Beginner:     getenvInt("AI_DEPTH_BEGINNER", 1),
			Intermediate: getenvInt("AI_DEPTH_INTERMEDIATE", 3),
			Expert:       getenvInt("AI_DEPTH_EXPERT", 5),
		},
		AIMaxSteps:      getenvInt("AI_MAX_STEPS", 64),
		AIRetries:       getenvInt("AI_RETRIES", 3),
		IdleTimeout:     getenvDuration("IDLE_TIMEOUT", 10*time.Minute),
		RoomTTL:         getenvDuration("ROOM_TTL", 2*time.Hour),
		JanitorInterval: getenvDuration("JANITOR_INTERVAL", time.Minute),
		Seed:            getenvInt64("RNG_SEED", 0),
		ServerSeed:      getenv("RNG_SERVER_SEED", ""),
		ClientSeed:      getenv("RNG_CLIENT_SEED", "tabletop"),
		LogDev:          getenvBool("LOG_DEV", false),
		Weights: Weights{
			WWin:                getenvInt("W_WIN", w.WWin),
			WThreat:             getenvInt("W_THREAT", w.WThreat),
			WOverwrite:          getenvInt("W_OVERWRITE", w.WOverwrite),
			WBlock:              getenvInt("W_BLOCK", w.WBlock),
			WBuild:              getenvInt("W_BUILD", w.WBuild),
			WCardVal:            getenvInt("W_CARDVAL", w.WCardVal),
			BonusThreatMid:      getenvInt("BONUS_THREAT_MID", w.BonusThreatMid),
			BonusThreatEdge:     getenvInt("BONUS_THREAT_EDGE", w.BonusThreatEdge),
			BonusSmallestInHand: getenvInt("BONUS_SMALLEST", w.BonusSmallestInHand),
			BoardSize:           getenvInt("BOARD_SIZE", w.BoardSize),
		},
	}
}
