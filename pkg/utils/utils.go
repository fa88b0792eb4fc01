package utils

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	DayKey(t time.Time) string
	CompletionPercent(done, total int) int
}

type utils struct {
	location *time.Location
}

func New() IUtils {
	return &utils{
		location: time.Local,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// DayKey formats t as the local calendar day, used for per-day cache keys.
func (u *utils) DayKey(t time.Time) string {
	return t.In(u.location).Format("2006-01-02")
}

// CompletionPercent rounds half up and reports 0 for an empty set.
func (u *utils) CompletionPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (done*100 + total/2) / total
}
