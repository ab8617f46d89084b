// Package setup provides the interactive terminal configuration wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tradegym/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes
// config.gen.yaml on confirmation.
func RunTUI() error {
	var (
		mode         string
		platform     string
		pair         string
		feeRateStr   string
		initCashStr  string
		maxStepsStr  string
		stepDelayStr string
		shortPolicy  string
		apiURL       string
		agentID      string
		exchange     string
		confirm      bool
	)

	// defaults
	feeRateStr = "0.0005"
	initCashStr = "100000000"
	maxStepsStr = "100"
	stepDelayStr = "300ms"
	exchange = "Upbit"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up an episode runner in a few steps.\n"))

	fmt.Println(stepStyle.Render("STEP 1: MODE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose the execution mode").
				Options(
					huh.NewOption("Local (static series, sign reward)", "local"),
					huh.NewOption("Live (crawler feed, returns reward)", "live"),
					huh.NewOption("API (remote gym server)", "api"),
				).
				Value(&mode),
		),
	).Run()
	if err != nil {
		return err
	}

	if mode != "api" {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
		fmt.Println(stepStyle.Render("STEP 2: DATA PLATFORM"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Select the price data source").
					Options(
						huh.NewOption("Binance klines", "binance"),
						huh.NewOption("Synthetic random walk", "random"),
					).
					Value(&platform),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: INSTRUMENT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: EPISODE SETTINGS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fee Rate").
				Description("Proportional transaction cost (e.g. 0.0005)").
				Value(&feeRateStr).
				Validate(validateDecimal),
			huh.NewInput().
				Title("Initial Cash").
				Value(&initCashStr).
				Validate(validateDecimal),
			huh.NewInput().
				Title("Max Steps").
				Description("Episode time budget (max_t_size)").
				Value(&maxStepsStr),
			huh.NewInput().
				Title("Step Delay").
				Description("Pacing delay, duration string (e.g. 300ms)").
				Value(&stepDelayStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Short Selling Policy").
				Options(
					huh.NewOption("Reject oversized sells", "reject"),
					huh.NewOption("Allow (implicit short)", "allow"),
					huh.NewOption("Clamp to held quantity", "clamp"),
				).
				Value(&shortPolicy),
		),
	).Run()
	if err != nil {
		return err
	}

	if mode == "api" {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
		fmt.Println(stepStyle.Render("STEP 5: REMOTE SERVER"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Gym Server URL").
					Value(&apiURL),
				huh.NewInput().
					Title("Agent ID").
					Value(&agentID),
				huh.NewInput().
					Title("Exchange").
					Value(&exchange),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEGYM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Mode: %s\nPlatform: %s\nPair: %s\nFee rate: %s\nInit cash: %s\nMax steps: %s\n",
		mode, platform, pair, feeRateStr, initCashStr, maxStepsStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	stepDelay, _ := time.ParseDuration(stepDelayStr)
	maxSteps := 100
	fmt.Sscanf(maxStepsStr, "%d", &maxSteps)

	cfgTmp := config.ConfigTmp{
		Mode:        mode,
		Platform:    platform,
		Pair:        pair,
		FeeRate:     feeRateStr,
		InitCash:    initCashStr,
		MaxSteps:    maxSteps,
		StepDelay:   stepDelay,
		ShortPolicy: shortPolicy,
		APIURL:      apiURL,
		AgentID:     agentID,
		Exchange:    exchange,
	}

	configs := []config.ConfigTmp{cfgTmp}

	data, err := yaml.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s", filename)))
	return nil
}

func validateDecimal(s string) error {
	if _, err := decimal.NewFromString(s); err != nil {
		return fmt.Errorf("must be a valid number")
	}
	return nil
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
