// Package catalog provides the static content the engine runs on: the quiz
// question bank and the companion species catalog. A default bank ships
// embedded in the binary; deployments can swap in their own bank from an
// .xlsx or .csv file.
package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "embed"

	"github.com/xuri/excelize/v2"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/quiz"
)

//go:embed default_quiz_bank.json
var defaultQuizBankJSON []byte

// optionCount is the fixed number of options per quiz item.
const optionCount = 4

type quizBankFile struct {
	Items []quizBankItem `json:"items"`
}

type quizBankItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
	XPReward      int      `json:"xp_reward"`
}

// QuizBank is a validated pool of quiz items, at least one daily set large.
type QuizBank struct {
	items []quiz.Item
}

// Size returns the number of items in the bank.
func (b *QuizBank) Size() int {
	return len(b.items)
}

// DailySet returns the ten items for the given day number (days since the
// Unix epoch works fine). The set rotates deterministically through the bank
// so consecutive days see different questions; the same day always yields
// the same set.
func (b *QuizBank) DailySet(dayNumber int) []quiz.Item {
	if dayNumber < 0 {
		dayNumber = 0
	}
	set := make([]quiz.Item, quiz.SessionSize)
	start := (dayNumber * quiz.SessionSize) % len(b.items)
	for i := 0; i < quiz.SessionSize; i++ {
		item := b.items[(start+i)%len(b.items)]
		item.Options = append([]string(nil), item.Options...)
		item.Completed = false
		set[i] = item
	}
	return set
}

// DefaultQuizBank loads the embedded question bank.
func DefaultQuizBank() (*QuizBank, error) {
	var file quizBankFile
	if err := json.Unmarshal(defaultQuizBankJSON, &file); err != nil {
		return nil, fmt.Errorf("decode embedded quiz bank: %w", err)
	}
	return buildBank(file.Items)
}

// LoadQuizBank loads a question bank from an .xlsx, .csv, or .json file.
func LoadQuizBank(path string) (*QuizBank, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadExcelBank(path)
	case ".csv":
		return loadCSVBank(path)
	case ".json":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read quiz bank: %w", err)
		}
		var file quizBankFile
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode quiz bank %s: %w", path, err)
		}
		return buildBank(file.Items)
	default:
		return nil, fmt.Errorf("unsupported quiz bank format: %s", path)
	}
}

// loadExcelBank reads rows of question, four options, correct option, and
// XP reward from the first sheet, skipping the header row.
func loadExcelBank(path string) (*QuizBank, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz bank workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var items []quizBankItem
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		item, ok := parseBankRow(row)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return buildBank(items)
}

func loadCSVBank(path string) (*QuizBank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz bank csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read quiz bank csv: %w", err)
	}

	var items []quizBankItem
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		item, ok := parseBankRow(row)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return buildBank(items)
}

// parseBankRow maps a row of [question, optA..optD, correct, xp] to an item.
// Malformed rows are skipped rather than failing the whole import.
func parseBankRow(row []string) (quizBankItem, bool) {
	if len(row) < 7 {
		return quizBankItem{}, false
	}
	question := strings.TrimSpace(row[0])
	if question == "" {
		return quizBankItem{}, false
	}
	options := make([]string, 0, optionCount)
	for _, cell := range row[1 : 1+optionCount] {
		options = append(options, strings.TrimSpace(cell))
	}
	reward, err := strconv.Atoi(strings.TrimSpace(row[6]))
	if err != nil || reward <= 0 {
		reward = 10
	}
	return quizBankItem{
		Question:      question,
		Options:       options,
		CorrectOption: strings.TrimSpace(row[5]),
		XPReward:      reward,
	}, true
}

func buildBank(raw []quizBankItem) (*QuizBank, error) {
	items := make([]quiz.Item, 0, len(raw))
	for i, r := range raw {
		if err := validateBankItem(r); err != nil {
			return nil, fmt.Errorf("quiz bank item %d: %w", i, err)
		}
		items = append(items, quiz.Item{
			Question:      r.Question,
			Options:       append([]string(nil), r.Options...),
			CorrectOption: r.CorrectOption,
			XPReward:      r.XPReward,
		})
	}
	if len(items) < quiz.SessionSize {
		return nil, fmt.Errorf("quiz bank needs at least %d items, got %d",
			quiz.SessionSize, len(items))
	}
	return &QuizBank{items: items}, nil
}

func validateBankItem(item quizBankItem) error {
	if strings.TrimSpace(item.Question) == "" {
		return fmt.Errorf("question is empty")
	}
	if len(item.Options) != optionCount {
		return fmt.Errorf("expected %d options, got %d", optionCount, len(item.Options))
	}
	found := false
	for _, opt := range item.Options {
		if opt == item.CorrectOption {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("correct option %q not among options", item.CorrectOption)
	}
	if item.XPReward <= 0 {
		return fmt.Errorf("xp reward must be positive")
	}
	return nil
}
