package repository

import (
	"reflect"
	"testing"

	"plate-service/internal/regions"
)

func TestToRowsKeepsTableOrder(t *testing.T) {
	table := regions.MustNewTable([]regions.Record{
		{Code: "H", Regions: []string{"Semarang", "Salatiga"}},
		{Code: "AB", Regions: []string{"Yogyakarta"}},
	})

	rows := toRows(table)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for i, row := range rows {
		if row.Position != i {
			t.Errorf("rows[%d].Position = %d", i, row.Position)
		}
		if row.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Errorf("rows[%d] has no id", i)
		}
	}
	if rows[0].Code != "H" || !reflect.DeepEqual([]string(rows[0].Regions), []string{"Semarang", "Salatiga"}) {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Code != "AB" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestToRowsEmptyTable(t *testing.T) {
	if rows := toRows(regions.MustNewTable(nil)); len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}
