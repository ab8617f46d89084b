// Package render displays episode progress. Renderers are fed step
// outcomes purely for display and can never mutate engine state; the
// only control they expose is a pause/resume signal.
package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			Bold(true)

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	doneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// Renderer receives step outcomes for display.
type Renderer interface {
	Render(window []domain.Bar, portfolio *domain.Portfolio, info domain.StepInfo, decision domain.Decision)
	Pause()
	Resume()
}

// Console prints a one-line step summary to stdout.
type Console struct {
	ticker string

	mu     sync.Mutex
	paused bool
	cond   *sync.Cond
}

// NewConsole creates a console renderer for the given ticker.
func NewConsole(ticker string) *Console {
	c := &Console{ticker: ticker}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Render prints the step summary, blocking while paused.
func (c *Console) Render(window []domain.Bar, portfolio *domain.Portfolio, info domain.StepInfo, decision domain.Decision) {
	c.mu.Lock()
	for c.paused {
		c.cond.Wait()
	}
	c.mu.Unlock()

	price := decimal.Zero
	if len(window) > 0 {
		price = window[len(window)-1].Close
	}

	change := info.StepReturn
	changeStr := gainStyle.Render("+" + change.String())
	if change.Sign() < 0 {
		changeStr = lossStyle.Render(change.String())
	}

	line := fmt.Sprintf("%s t=%-4d %s %-5s price=%s value=%s (%s)",
		labelStyle.Render(c.ticker),
		len(window)-1,
		labelStyle.Render("step"),
		decision.String(),
		price.String(),
		info.CurPortfolioVal.String(),
		changeStr,
	)
	fmt.Println(line)

	if info.Msg != "" {
		fmt.Println(doneStyle.Render(info.Msg))
	}
}

// Pause blocks rendering until Resume is called.
func (c *Console) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume unblocks a paused renderer.
func (c *Console) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.cond.Broadcast()
}

// Nop is a renderer that discards everything.
type Nop struct{}

func (Nop) Render([]domain.Bar, *domain.Portfolio, domain.StepInfo, domain.Decision) {}
func (Nop) Pause()                                                                   {}
func (Nop) Resume()                                                                  {}
