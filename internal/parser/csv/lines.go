package csv

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Line is the token sequence of one input line.
type Line []Token

// parallelChunk is the smallest number of lines handed to one goroutine.
const parallelChunk = 512

// Partition groups tokens into lines. Line break tokens end a line and are
// dropped; empty lines are discarded. maxLines > 0 stops after that many
// non-empty lines.
func Partition(toks []Token, maxLines int) []Line {
	var (
		lines []Line
		cur   Line
	)
	for _, t := range toks {
		if maxLines > 0 && len(lines) >= maxLines {
			return lines
		}
		if t.Kind == KindLineBreak {
			if len(cur) > 0 {
				lines = append(lines, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 && (maxLines <= 0 || len(lines) < maxLines) {
		lines = append(lines, cur)
	}
	return lines
}

// Repair rewrites lines in place so each one alternates content and
// separator, starting and ending with content. With padShortRows, lines with
// fewer cells than the widest line are extended with empty cells.
func Repair(lines []Line, padShortRows bool) {
	eachLine(len(lines), func(i int) { lines[i] = repairLine(lines[i]) })
	if !padShortRows {
		return
	}
	widest := 0
	for _, l := range lines {
		widest = max(widest, l.Cells())
	}
	eachLine(len(lines), func(i int) { lines[i] = padLine(lines[i], widest) })
}

func repairLine(l Line) Line {
	out := make(Line, 0, len(l)+2)
	for i, t := range l {
		if t.Kind == KindSeparator {
			if i == 0 || l[i-1].Kind == KindSeparator {
				out = append(out, NullContent())
			}
		}
		out = append(out, t)
	}
	if len(out) > 0 && out[len(out)-1].Kind == KindSeparator {
		out = append(out, NullContent())
	}
	return out
}

func padLine(l Line, cells int) Line {
	for n := l.Cells(); n < cells; n++ {
		if len(l) > 0 && l[len(l)-1].Kind == KindContent {
			l = append(l, Separator())
		}
		l = append(l, NullContent())
	}
	return l
}

// Cells counts the content tokens of the line.
func (l Line) Cells() int {
	n := 0
	for _, t := range l {
		if t.Kind == KindContent {
			n++
		}
	}
	return n
}

// Cleanup drops separators and flattens every line into its cell texts.
func Cleanup(lines []Line) [][]*string {
	grid := make([][]*string, len(lines))
	eachLine(len(lines), func(i int) {
		row := make([]*string, 0, len(lines[i])/2+1)
		for _, t := range lines[i] {
			if t.Kind == KindContent {
				row = append(row, t.Text)
			}
		}
		grid[i] = row
	})
	return grid
}

// eachLine runs fn for every index in [0, n). Large inputs are split into
// chunks processed concurrently; fn must only touch its own index.
func eachLine(n int, fn func(i int)) {
	if n < 2*parallelChunk {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += parallelChunk {
		hi := min(lo+parallelChunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
