package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/hablabot/internal/importer"
	"github.com/at-ishikawa/hablabot/internal/testutil"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

func TestScaleFlag_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    ScaleFlag
		wantErr bool
	}{
		{name: "sm2", value: "sm2", want: ScaleFlag(vocabulary.ScaleSM2)},
		{name: "percentage", value: "percentage", want: ScaleFlag(vocabulary.ScalePercentage)},
		{name: "binary", value: "binary", want: ScaleFlag(vocabulary.ScaleBinary)},
		{name: "confidence", value: "confidence", want: ScaleFlag(vocabulary.ScaleConfidence)},
		{name: "invalid value", value: "stars", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag ScaleFlag
			err := flag.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid value")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, flag)
			assert.Equal(t, tt.value, flag.String())
		})
	}
}

func TestScaleFlag_StringNil(t *testing.T) {
	var flag *ScaleFlag
	assert.Equal(t, "", flag.String())
	assert.Equal(t, "ScaleFlag", flag.Type())
}

func TestNewVocabCommand(t *testing.T) {
	cmd := newVocabCommand()

	assert.Equal(t, "vocab", cmd.Use)
	assert.Equal(t, "Manage the vocabulary list", cmd.Short)
	assert.True(t, cmd.HasSubCommands())
}

func TestVocabAdd(t *testing.T) {
	setupTestConfigFile(t)

	out, err := execute(t, newVocabCommand(), "", "add",
		"--spanish", "la cuenta",
		"--english", "the bill",
		"--category", "food",
		"--difficulty", "2",
		"--example", "La cuenta, por favor.",
		"--tag", "restaurant,polite",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Added la cuenta (")

	item := findItem(t, "la cuenta")
	assert.Equal(t, "the bill", item.English)
	assert.Equal(t, "food", item.Category)
	assert.Equal(t, 2, item.Difficulty)
	assert.Equal(t, []string{"La cuenta, por favor."}, item.Examples)
	assert.Equal(t, []string{"restaurant", "polite"}, item.Tags)
}

func TestVocabAdd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "missing english",
			args:    []string{"add", "--spanish", "mesa"},
			wantErr: vocabulary.ErrValidation,
		},
		{
			name:    "duplicate ignoring case",
			args:    []string{"add", "--spanish", "HOLA", "--english", "hi"},
			wantErr: vocabulary.ErrDuplicateWord,
		},
		{
			name:    "difficulty out of range",
			args:    []string{"add", "--spanish", "mesa", "--english", "table", "--difficulty", "9"},
			wantErr: vocabulary.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfigFile(t)
			addWord(t, "--spanish", "hola", "--english", "hello")

			_, err := execute(t, newVocabCommand(), "", tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVocabEdit(t *testing.T) {
	setupTestConfigFile(t)
	addWord(t, "--spanish", "mesa", "--english", "table", "--category", "food", "--tag", "restaurant")
	before := findItem(t, "mesa")

	out, err := execute(t, newVocabCommand(), "", "edit", before.ID, "--english", "the table")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Updated mesa (%s)\n", before.ID), out)

	after := findItem(t, "mesa")
	assert.Equal(t, "the table", after.English)
	assert.Equal(t, "food", after.Category)
	assert.Equal(t, []string{"restaurant"}, after.Tags)
}

func TestVocabEdit_NotFound(t *testing.T) {
	setupTestConfigFile(t)

	_, err := execute(t, newVocabCommand(), "", "edit", "missing", "--english", "x")
	assert.ErrorIs(t, err, vocabulary.ErrNotFound)
}

func TestVocabRemove(t *testing.T) {
	setupTestConfigFile(t)
	addWord(t, "--spanish", "mesa", "--english", "table")
	item := findItem(t, "mesa")

	out, err := execute(t, newVocabCommand(), "", "remove", item.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Removed %s\n", item.ID), out)
	assert.Empty(t, loadTestVocabulary(t).All())

	_, err = execute(t, newVocabCommand(), "", "remove", item.ID)
	assert.ErrorIs(t, err, vocabulary.ErrNotFound)
}

func TestVocabList(t *testing.T) {
	setupTestConfigFile(t)
	addWord(t, "--spanish", "mesa", "--english", "table", "--category", "food")
	addWord(t, "--spanish", "tren", "--english", "train", "--category", "travel", "--difficulty", "3")

	tests := []struct {
		name        string
		args        []string
		wantWords   []string
		unwantWords []string
	}{
		{name: "all", args: []string{"list"}, wantWords: []string{"SPANISH", "mesa", "tren"}},
		{name: "search", args: []string{"list", "--search", "TRAIN"}, wantWords: []string{"tren"}, unwantWords: []string{"mesa"}},
		{name: "category", args: []string{"list", "--category", "food"}, wantWords: []string{"mesa"}, unwantWords: []string{"tren"}},
		{name: "difficulty", args: []string{"list", "--difficulty", "3"}, wantWords: []string{"tren"}, unwantWords: []string{"mesa"}},
		{name: "mastery zero", args: []string{"list", "--mastery", "0"}, wantWords: []string{"mesa", "tren"}},
		{name: "due", args: []string{"list", "--due"}, wantWords: []string{"mesa", "tren", "due"}},
		{name: "due with category", args: []string{"list", "--due", "--category", "food"}, wantWords: []string{"mesa", "due"}, unwantWords: []string{"tren"}},
		{name: "due with search", args: []string{"list", "--due", "--search", "train"}, wantWords: []string{"tren"}, unwantWords: []string{"mesa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, newVocabCommand(), "", tt.args...)
			require.NoError(t, err)
			for _, word := range tt.wantWords {
				assert.Contains(t, out, word)
			}
			for _, word := range tt.unwantWords {
				assert.NotContains(t, out, word)
			}
		})
	}

	t.Run("no match", func(t *testing.T) {
		out, err := execute(t, newVocabCommand(), "", "list", "--mastery", "3")
		require.NoError(t, err)
		assert.Equal(t, "No words found.\n", out)
	})
}

func TestVocabReview(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		wantQuality      string
		wantRepetitions  int
		wantIncorrect    int
		wantNextInterval int
	}{
		{
			name:             "sm2 score",
			args:             []string{"4"},
			wantQuality:      "quality 4",
			wantRepetitions:  1,
			wantNextInterval: 1,
		},
		{
			name:             "percentage score",
			args:             []string{"95", "--scale", "percentage"},
			wantQuality:      "quality 5",
			wantRepetitions:  1,
			wantNextInterval: 1,
		},
		{
			name:             "failed binary score",
			args:             []string{"0", "--scale", "binary"},
			wantQuality:      "quality 1",
			wantIncorrect:    1,
			wantNextInterval: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfigFile(t)
			addWord(t, "--spanish", "mesa", "--english", "table")
			item := findItem(t, "mesa")

			out, err := execute(t, newVocabCommand(), "", append([]string{"review", item.ID}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "mesa: "+tt.wantQuality)

			reviewed := findItem(t, "mesa")
			assert.Equal(t, tt.wantRepetitions, reviewed.Repetitions)
			assert.Equal(t, tt.wantIncorrect, reviewed.TimesIncorrect)
			assert.Equal(t, tt.wantNextInterval, reviewed.Interval)
		})
	}
}

func TestVocabReview_InvalidScore(t *testing.T) {
	setupTestConfigFile(t)

	_, err := execute(t, newVocabCommand(), "", "review", "some-id", "good")
	assert.ErrorContains(t, err, `invalid score "good"`)

	_, err = execute(t, newVocabCommand(), "", "review", "some-id", "4", "--scale", "stars")
	assert.ErrorContains(t, err, "invalid value")
}

func TestVocabImport(t *testing.T) {
	tmpDir := t.TempDir()
	useConfig(t, testutil.SetupTestConfig(t, tmpDir))
	addWord(t, "--spanish", "hola", "--english", "hello")

	path := testutil.CreateVocabularyCSV(t, tmpDir, "words.csv",
		importer.Columns,
		[]string{"mesa", "table", "", "1", "food", "La mesa está lista.", "restaurant"},
		[]string{"tren", "", "", "", "", "", ""},
		[]string{"Hola", "hi", "", "", "", "", ""},
	)

	out, err := execute(t, newVocabCommand(), "", "import", path)
	require.NoError(t, err)
	assert.Equal(t, `Imported 1 word(s), 2 error(s)
  Row 2: Missing Spanish or English translation
  Row 3: "Hola" already exists
`, out)

	item := findItem(t, "mesa")
	assert.Equal(t, "food", item.Category)
	assert.Equal(t, []string{"restaurant"}, item.Tags)
}

func TestVocabImport_UnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	useConfig(t, testutil.SetupTestConfig(t, tmpDir))
	path := filepath.Join(tmpDir, "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("mesa"), 0644))

	_, err := execute(t, newVocabCommand(), "", "import", path)
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestVocabExport(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			tmpDir := t.TempDir()
			useConfig(t, testutil.SetupTestConfig(t, tmpDir))
			addWord(t, "--spanish", "mesa", "--english", "table", "--tag", "restaurant")

			output := filepath.Join(tmpDir, "out", "words"+ext)
			out, err := execute(t, newVocabCommand(), "", "export", "--output", output)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("Exported 1 word(s) to %s\n", output), out)

			rows, err := importer.ReadFile(output)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "mesa", rows[0].Spanish)
			assert.Equal(t, []string{"restaurant"}, rows[0].Tags)
		})
	}
}

func TestVocabExport_DefaultFileName(t *testing.T) {
	setupTestConfigFile(t)
	t.Chdir(t.TempDir())

	out, err := execute(t, newVocabCommand(), "", "export")
	require.NoError(t, err)

	name := fmt.Sprintf("hablabot-vocabulary-%s.csv", time.Now().Format(time.DateOnly))
	assert.Equal(t, fmt.Sprintf("Exported 0 word(s) to %s\n", name), out)
	assert.FileExists(t, name)
}

func TestVocabStats(t *testing.T) {
	setupTestConfigFile(t)
	addWord(t, "--spanish", "mesa", "--english", "table", "--category", "food")

	out, err := execute(t, newVocabCommand(), "", "stats", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "food")
	assert.Contains(t, out, time.Now().AddDate(0, 0, 2).Format(time.DateOnly))
}

func TestVocabCategories(t *testing.T) {
	setupTestConfigFile(t)
	addWord(t, "--spanish", "tren", "--english", "train", "--category", "transport")

	out, err := execute(t, newVocabCommand(), "", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "transport\n")
	assert.Contains(t, out, vocabulary.DefaultCategory+"\n")
}

func TestVocab_InvalidConfig(t *testing.T) {
	useConfig(t, testutil.SetupBrokenConfig(t, t.TempDir()))

	_, err := execute(t, newVocabCommand(), "", "list")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}
