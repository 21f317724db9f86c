package table_test

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/table"
)

func ExampleTable_ColumnRawContent() {
	mem := memory.DefaultAllocator
	tbl, err := table.New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []int64{1577836810, 1577923213}),
		columnar.FromSlice(mem, []uint32{0x7f000001, 0x0a000001}),
	}, map[uint64]int{1001: 0, 1002: 1})
	if err != nil {
		panic(err)
	}

	types := []schema.ColumnType{schema.DateTime, schema.IpAddr}
	content := tbl.ColumnRawContent([]uint64{1002}, types, []int{0, 1})
	for _, v := range content[1002] {
		fmt.Println(*v)
	}
	// Output:
	// 1577923213
	// 10.0.0.1
}

func ExampleTable_CountGroupBy() {
	mem := memory.DefaultAllocator
	tbl, _ := table.New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []int64{0, 20, 65, 70}),
		columnar.FromSlice(mem, []int64{3, 4, -1, 2}),
	}, nil)

	types := []schema.ColumnType{schema.DateTime, schema.Int64}
	for _, gc := range tbl.CountGroupBy(tbl.AllRows(), types, 0, 60, []int{0, 1}) {
		for _, s := range gc.Series {
			fmt.Println(gc.CountIndex != nil, s.Value.DateTime.Unix(), s.Count)
		}
	}
	// Output:
	// false 0 2
	// false 60 2
	// true 0 7
	// true 60 2
}
