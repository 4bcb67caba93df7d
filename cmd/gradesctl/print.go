// cmd/gradesctl/print.go
package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dalemusser/stratagrades/internal/domain/models"
)

const separator = "----------------"

// printGrouped writes grades grouped by subject in first-seen order.
func printGrouped(w io.Writer, grades []models.Grade) {
	var order []string
	bySubject := map[string][]models.Grade{}
	for _, g := range grades {
		if _, ok := bySubject[g.Subject]; !ok {
			order = append(order, g.Subject)
		}
		bySubject[g.Subject] = append(bySubject[g.Subject], g)
	}

	for _, subject := range order {
		fmt.Fprintf(w, "%s:\n", subject)
		for _, g := range bySubject[subject] {
			fmt.Fprintf(w, "    %s -> %s\n", g.Title, formatResult(g))
		}
		fmt.Fprintln(w, separator)
	}
}

// formatResult shows raw points unless the grade is out of 100.
func formatResult(g models.Grade) string {
	if g.MaxPoints != nil && g.Score != nil && *g.MaxPoints != 100 {
		return num(*g.Score) + "/" + num(*g.MaxPoints)
	}
	return num(g.Percent) + "%"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
