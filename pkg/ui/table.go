package ui

import (
	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
)

// FileRow is one line of a file listing
type FileRow struct {
	Path   string
	Size   int64
	SHA256 string
}

// PrintFileTable prints files as an aligned table followed by a total
func (p *Printer) PrintFileTable(rows []FileRow) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	table.AddRow(p.Bold("PATH"), p.Bold("SIZE"), p.Bold("SHA256"))
	var total int64
	for _, r := range rows {
		sum := r.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		table.AddRow(r.Path, units.HumanSize(float64(r.Size)), p.Dim(sum))
		total += r.Size
	}

	p.Println(table.String())
	p.Printf("%d files, %s\n", len(rows), units.HumanSize(float64(total)))
}
