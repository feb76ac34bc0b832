package client

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pointspreads/ingestion/internal/models"
)

// ParsePregame extracts matchups from a pregame Covers.com page (today or a
// future date). Each game lives in an article.gamebox.pregamebox: the header
// carries "AWAY @ HOME", the second team-consensus span the home spread, the
// team-overunder span the "o/u N" total.
func ParsePregame(body []byte, day time.Time) ([]models.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing matchup page: %w", err)
	}

	var rows []models.RawRow
	doc.Find("article.gamebox.pregamebox").Each(func(i int, box *goquery.Selection) {
		header := box.Find("p#gamebox-header")
		away, home, ok := splitMatchup(header.Find("strong.text-uppercase").First().Text())
		if !ok {
			log.Debug().Int("index", i).Msg("Pregame box header missing away @ home, skipping")
			return
		}

		spread := firstLine(box.Find("span.team-consensus").Eq(1).Text())
		total := strings.TrimSpace(box.Find("span.team-overunder").First().Text())
		total = strings.TrimPrefix(strings.ToLower(total), "o/u ")

		rows = append(rows, models.RawRow{
			GameDate:    models.Day(day),
			HomeTeam:    home,
			AwayTeam:    away,
			Spread:      spread,
			Total:       total,
			NeutralSite: strings.Contains(header.Text(), "(N)"),
		})
	})

	return rows, nil
}

// ParsePostgame extracts matchups from a historical Covers.com page. Played
// games live in article.gamebox.postgamebox; the summary box carries the
// closing spread in its first strong element and the total as "over N" or
// "under N".
func ParsePostgame(body []byte, day time.Time) ([]models.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing matchup page: %w", err)
	}

	var rows []models.RawRow
	doc.Find("article.gamebox.postgamebox").Each(func(i int, box *goquery.Selection) {
		header := box.Find("p.gamebox-header")
		away, home, ok := splitMatchup(header.Find("strong.text-uppercase").First().Text())
		if !ok {
			log.Debug().Int("index", i).Msg("Postgame box header missing away @ home, skipping")
			return
		}

		summary := box.Find("p.summary-box strong")
		spread := strings.ToUpper(firstLine(summary.First().Text()))

		var total string
		summary.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.TrimSpace(s.Text()))
			if rest, ok := strings.CutPrefix(text, "over "); ok {
				total = rest
				return false
			}
			if rest, ok := strings.CutPrefix(text, "under "); ok {
				total = rest
				return false
			}
			return true
		})

		headerText := strings.ToLower(header.Text())
		neutral := strings.Contains(headerText, "(n)") ||
			strings.Contains(headerText, "neutral") ||
			strings.Contains(headerText, "tournament")

		rows = append(rows, models.RawRow{
			GameDate:    models.Day(day),
			HomeTeam:    home,
			AwayTeam:    away,
			Spread:      spread,
			Total:       total,
			NeutralSite: neutral,
		})
	})

	return rows, nil
}

// splitMatchup splits a "AWAY @ HOME" header into its team names.
func splitMatchup(header string) (away, home string, ok bool) {
	parts := strings.Split(header, "@")
	if len(parts) != 2 {
		return "", "", false
	}

	away = strings.TrimSpace(parts[0])
	home = strings.TrimSpace(parts[1])
	if away == "" || home == "" {
		return "", "", false
	}
	return away, home, true
}

// firstLine returns the first non-empty line of a selection's text. Consensus
// spans nest extra markup whose text would otherwise leak into the line.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
