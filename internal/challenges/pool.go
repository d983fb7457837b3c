package challenges

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/healthtracker/pkg"

	log "github.com/sirupsen/logrus"
)

// DailyCount is the number of challenges offered each day.
const DailyCount = 5

//go:embed challenges.csv
var defaultChallengesCSV string

var ErrEmptyPool = errors.New("challenge pool is empty")

type Challenge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reward      int    `json:"reward"`
}

// Pool is the immutable list of challenges, loaded once at start.
type Pool struct {
	challenges []Challenge
}

// LoadPool reads the pool from the CSV file at path, or the built-in pool when path is empty.
func LoadPool(path string) (*Pool, error) {
	if path == "" {
		return NewPool(csv.NewReader(strings.NewReader(defaultChallengesCSV)))
	}

	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("stat challenges csv: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("challenges csv [%s] not found", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open challenges csv: %w", err)
	}
	defer f.Close()

	return NewPool(csv.NewReader(f))
}

// NewPool reads challenges from ';' separated records: NAME;DESCRIPTION;CATEGORY;REWARD.
func NewPool(challengesCsvReader *csv.Reader) (*Pool, error) {
	challengesCsvReader.Comma = ';'

	pool := &Pool{}
	for {
		record, err := challengesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 4 {
			return nil, fmt.Errorf("record [%s] does not have 4 elements", record)
		}

		reward, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("record [%s] reward: %w", record[0], err)
		}

		pool.challenges = append(pool.challenges, Challenge{
			Name:        strings.TrimSpace(record[0]),
			Description: strings.TrimSpace(record[1]),
			Category:    strings.TrimSpace(record[2]),
			Reward:      reward,
		})
	}

	if len(pool.challenges) == 0 {
		return nil, ErrEmptyPool
	}

	log.Debugf("challenges CSV read %d challenges", len(pool.challenges))
	return pool, nil
}

func (p *Pool) Len() int {
	return len(p.challenges)
}

// DaySeed returns the calendar day as the integer YYYYMMDD.
func DaySeed(day time.Time) uint64 {
	return uint64(day.Year()*10000 + int(day.Month())*100 + day.Day())
}

// ForDay picks n distinct challenges for the day. The pick depends only on
// the day and the pool, so every instance offers the same challenges.
func (p *Pool) ForDay(day time.Time, n int) []Challenge {
	n = min(n, len(p.challenges))
	if n <= 0 {
		return nil
	}

	seed := DaySeed(day)
	rnd := rand.New(rand.NewPCG(seed, seed))

	picked := make([]Challenge, 0, n)
	for _, i := range rnd.Perm(len(p.challenges))[:n] {
		picked = append(picked, p.challenges[i])
	}
	return picked
}
