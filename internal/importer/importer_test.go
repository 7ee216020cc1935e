package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestFromCSV(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Organization,Website,Phone,Email,Notes",
		"The Grind House,https://grindhouse.com,555-0100,owner@grindhouse.com,local coffee shop",
		"Iron Works,ironworks.fit,,gm@ironworks.fit,",
	}, "\n")

	contacts, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, "The Grind House", contacts[0].Organization)
	assert.Equal(t, "https://grindhouse.com", contacts[0].Website)
	assert.Equal(t, "555-0100", contacts[0].Phone)
	assert.Equal(t, "owner@grindhouse.com", contacts[0].Email)
	assert.Equal(t, "local coffee shop", contacts[0].Notes)

	assert.Equal(t, "gm@ironworks.fit", contacts[1].Email)
	assert.Empty(t, contacts[1].Notes)
}

func TestFromCSV_HeaderVariants(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Company,URL,E-Mail",
		"Oak Barrel,oakbarrel.com,cheers@oakbarrel.com",
	}, "\n")

	contacts, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Oak Barrel", contacts[0].Organization)
	assert.Equal(t, "oakbarrel.com", contacts[0].Website)
	assert.Equal(t, "cheers@oakbarrel.com", contacts[0].Email)
}

func TestFromCSV_DedupesKeepingFirst(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Organization,Email",
		"First Entry,owner@grindhouse.com",
		"Second Entry,OWNER@grindhouse.com",
		"Third Entry,other@ironworks.fit",
	}, "\n")

	contacts, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "First Entry", contacts[0].Organization)
	assert.Equal(t, "Third Entry", contacts[1].Organization)
}

func TestFromCSV_SkipsRowsWithoutEmail(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Organization,Email",
		"No Email Here,",
		"Has Email,owner@grindhouse.com",
		"Short Row",
	}, "\n")

	contacts, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Has Email", contacts[0].Organization)
}

func TestFromCSV_MissingEmailColumn(t *testing.T) {
	t.Parallel()

	data := "Organization,Website\nGrind House,grindhouse.com\n"

	_, err := FromCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email column")
}

func TestFromCSV_EmptyInput(t *testing.T) {
	t.Parallel()

	contacts, err := FromCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestFromXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "leads.xlsx")

	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Leads")
	require.NoError(t, err)
	for _, row := range [][]string{
		{"Organization", "Website", "Email"},
		{"The Grind House", "grindhouse.com", "owner@grindhouse.com"},
		{"Iron Works", "ironworks.fit", "gm@ironworks.fit"},
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}
	require.NoError(t, wb.Save(path))

	contacts, err := Load(path)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "The Grind House", contacts[0].Organization)
	assert.Equal(t, "gm@ironworks.fit", contacts[1].Email)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Load("leads.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
