package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(out io.Writer) *app {
	return &app{
		cfg: &config.Config{},
		log: logger.NewWithWriter("test", io.Discard),
		in:  strings.NewReader(""),
		out: out,
	}
}

func TestRootCmd_Tree(t *testing.T) {
	root := newRootCmd(newTestApp(io.Discard))

	for _, path := range [][]string{
		{"import"},
		{"migrate"},
		{"admin", "create"},
		{"admin", "list"},
		{"admin", "hash-passwords"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestImportCmd_RequiresFile(t *testing.T) {
	root := newRootCmd(newTestApp(io.Discard))
	root.SetArgs([]string{"import"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestImportCmd_MissingFile(t *testing.T) {
	root := newRootCmd(newTestApp(io.Discard))
	root.SetArgs([]string{"import", "/does/not/exist.xlsx"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestAdminCreateCmd_RequiresPhone(t *testing.T) {
	root := newRootCmd(newTestApp(io.Discard))
	root.SetArgs([]string{"admin", "create", "--password", "rahasia"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"phone" not set`)
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"unix newline", "rahasia\n", "rahasia", false},
		{"windows newline", "rahasia\r\n", "rahasia", false},
		{"no newline", "rahasia", "rahasia", false},
		{"keeps inner spaces", "kata sandi\n", "kata sandi", false},
		{"empty", "\n", "", true},
		{"eof", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPassword(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintResult(t *testing.T) {
	result := reconcile.Result{
		Rows:             3,
		NewTaxpayers:     1,
		MatchedTaxpayers: 1,
		AssetsSaved:      2,
		Skipped:          1,
		Errors:           []string{"Baris 4: NOP kosong"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printResult(newTestApp(&buf), result, false))

		out := buf.String()
		assert.Contains(t, out, "Baris diproses : 3")
		assert.Contains(t, out, "Objek disimpan : 2")
		assert.Contains(t, out, "  - Baris 4: NOP kosong")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printResult(newTestApp(&buf), result, true))

		var decoded reconcile.Result
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, result, decoded)
	})
}

func TestPrintAdmins(t *testing.T) {
	name := "Pak RT"
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	admins := []models.Admin{
		{ID: uuid.New(), Phone: "081234567890", Name: &name, PasswordHash: "$2a$10$abcdefghijklmnopqrstuuJ9Wq8m2nqkCFBbHc8bIYQOnvHMdQ7ri", CreatedAt: created},
		{ID: uuid.New(), Phone: "089876543210", PasswordHash: "plaintext", CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, printAdmins(&buf, admins))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PHONE")
	assert.Contains(t, lines[1], "Pak RT")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "-")
	assert.Contains(t, lines[2], "false")
	assert.Contains(t, lines[2], "2024-05-01")
}
