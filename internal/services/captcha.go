package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CaptchaService produces small arithmetic problems for the sign-up form.
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return NewCaptchaServiceWithSeed(time.Now().UnixNano())
}

func NewCaptchaServiceWithSeed(seed int64) *CaptchaService {
	return &CaptchaService{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns a question such as "3 + 5" and its answer.
// Subtractions never go below zero.
func (s *CaptchaService) Generate() (string, int) {
	s.mu.Lock()
	a, b, op := s.rnd.Intn(10), s.rnd.Intn(10), s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}

// Verify compares a submitted answer against the expected one.
func (s *CaptchaService) Verify(expected int, submitted string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(submitted))
	return err == nil && n == expected
}
