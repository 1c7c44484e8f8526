package report

import (
	"slices"

	"gigbook/shared/go/models"
)

// TaxReport summarizes a year's paid income and mileage.
type TaxReport struct {
	Year               int      `json:"year"`
	ShowsPaid          int      `json:"shows_paid"`
	TotalIncome        float64  `json:"total_income"`
	W9Income           float64  `json:"w9_income"`
	W9Venues           []string `json:"w9_venues"`
	SelfReportedIncome float64  `json:"self_reported_income"`
	SelfReportedVenues []string `json:"self_reported_venues"`
	TotalMiles         float64  `json:"total_miles"`
	MileageRate        float64  `json:"mileage_rate"`
	MileageDeduction   float64  `json:"mileage_deduction"`
}

// Tax builds the tax report for year from paid shows. Income from venues
// with a W-9 on file is expected on a 1099; the rest is self-reported.
// Mileage counts the round trip for each paid show. venues maps venue ids to
// venues; detached shows are self-reported under their snapshot name.
func Tax(year int, shows []models.Show, venues map[int64]*models.Venue, mileageRate float64) *TaxReport {
	tr := &TaxReport{
		Year:               year,
		W9Venues:           []string{},
		SelfReportedVenues: []string{},
		MileageRate:        mileageRate,
	}
	w9 := map[string]struct{}{}
	self := map[string]struct{}{}

	for i := range shows {
		show := &shows[i]
		if show.PaymentStatus != models.PaymentPaid || show.Date.Year() != year {
			continue
		}
		tr.ShowsPaid++

		var venue *models.Venue
		if show.VenueID != nil {
			venue = venues[*show.VenueID]
		}
		amount := show.Pay()
		if venue != nil && venue.HasW9 {
			tr.W9Income += amount
			w9[venue.Name] = struct{}{}
		} else {
			tr.SelfReportedIncome += amount
			if name := show.DisplayName(venue); name != models.UnknownVenueName {
				self[name] = struct{}{}
			}
		}

		if venue != nil && venue.MileageOneWay != nil {
			tr.TotalMiles += *venue.MileageOneWay * 2
		}
	}

	tr.TotalIncome = tr.W9Income + tr.SelfReportedIncome
	tr.MileageDeduction = tr.TotalMiles * mileageRate
	tr.W9Venues = sortedKeys(w9)
	tr.SelfReportedVenues = sortedKeys(self)
	return tr
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
