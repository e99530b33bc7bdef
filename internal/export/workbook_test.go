package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/codeninja-coin/admin-service/internal/models"
)

func readSheet(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteStudents(t *testing.T) {
	age := 9
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	students := []*models.Student{
		{ID: "s-2", FirstName: "Ana", LastName: "Lee", Age: &age, Belt: models.BeltYellow, Coins: 4, CreatedAt: created, UpdatedAt: created},
		{ID: "s-1", FirstName: "Bo", LastName: "Kim", Belt: models.BeltWhite, CreatedAt: created, UpdatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStudents(&buf, students))

	rows := readSheet(t, buf.Bytes(), StudentsSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "First Name", "Last Name", "Age", "Belt", "Coins", "Created At", "Updated At"}, rows[0])
	assert.Equal(t, "s-2", rows[1][0])
	assert.Equal(t, "9", rows[1][3])
	assert.Equal(t, "YELLOW", rows[1][4])
	assert.Equal(t, "4", rows[1][5])
	assert.Equal(t, "2026-03-01T10:00:00Z", rows[1][6])
	assert.Equal(t, "", rows[2][3])
}

func TestWriteRewardItems(t *testing.T) {
	desc := "Glow in the dark"
	items := []*models.RewardItem{
		{ID: "r-1", Title: "Sticker", Description: &desc, Price: 3, Stock: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRewardItems(&buf, items))

	rows := readSheet(t, buf.Bytes(), RewardItemsSheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sticker", rows[1][1])
	assert.Equal(t, desc, rows[1][2])
	assert.Equal(t, "3", rows[1][4])
	assert.Equal(t, "0", rows[1][5])
}

func TestWriteEmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRewardItems(&buf, nil))

	rows := readSheet(t, buf.Bytes(), RewardItemsSheet)
	require.Len(t, rows, 1)
}
