package roster

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arnavshah/team-allocator-go/pkg/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

func TestReadCSV(t *testing.T) {
	input := "name,join_date,age\nAlice,2023-01-01,30\nBob,2024-02-01\n\nAlice,,41\n"

	ros, err := ReadCSV(strings.NewReader(input), "")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "join_date", "age"}, ros.Columns)
	require.Len(t, ros.Rows, 3)
	require.Equal(t, "", ros.Rows[1]["age"], "short rows are padded")
	require.Equal(t, "Alice", ros.Rows[2]["name"], "duplicate names keep their own row")
	require.Equal(t, "41", ros.Rows[2]["age"])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\ufeffname,join_date\nA,2023-01-01\n"

	ros, err := ReadCSV(strings.NewReader(input), "utf-8")
	require.NoError(t, err)
	require.Equal(t, "name", ros.Columns[0])
}

func TestReadCSV_EUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String("이름,가입일\n홍길동,2023-01-01\n")
	require.NoError(t, err)

	ros, err := ReadCSV(strings.NewReader(encoded), "cp949")
	require.NoError(t, err)
	require.Equal(t, []string{"이름", "가입일"}, ros.Columns)
	require.Equal(t, "홍길동", ros.Rows[0]["이름"])
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "")
	require.ErrorIs(t, err, ErrEmptyRoster)

	_, err = ReadCSV(strings.NewReader("name,name\n"), "")
	require.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ReadCSV(strings.NewReader("name,\n"), "")
	require.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ReadCSV(strings.NewReader("name\na,b\n"), "")
	require.ErrorIs(t, err, ErrInvalidRow)

	_, err = ReadCSV(strings.NewReader("name\n"), "latin-9")
	require.ErrorIs(t, err, ErrUnsupportedCharset)
}

func TestWriteCSV(t *testing.T) {
	ros := &models.Roster{
		Columns: []string{"age", "name", "join_date", "new_team"},
		Rows: []map[string]string{
			{"age": "30", "name": "김철수", "join_date": "2023-01-01", "new_team": "Team 1"},
			{"age": "", "name": "Bob, Jr.", "join_date": "", "new_team": "Team 2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ros, "name", "current_team", "new_team"))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "output starts with a BOM")
	require.Equal(t,
		"\ufeffname,new_team,age,join_date\n김철수,Team 1,30,2023-01-01\n\"Bob, Jr.\",Team 2,,\n",
		out)

	back, err := ReadCSV(strings.NewReader(out), "")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "new_team", "age", "join_date"}, back.Columns)
	require.Equal(t, ros.Rows, back.Rows)
}
