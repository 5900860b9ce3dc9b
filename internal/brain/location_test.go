package brain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/brain"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

var _ = Describe("ExtractLocation", func() {
	DescribeTable("builds a location query from recognized entities",
		func(entities []domain.Entity, want string, wantOK bool) {
			got, ok := brain.ExtractLocation(entities)
			Expect(ok).To(Equal(wantOK))
			Expect(got).To(Equal(want))
		},
		Entry("city and state", []domain.Entity{
			{Type: "City", Text: "Austin"},
			{Type: "StateOrCounty", Text: "TX"},
		}, "Austin, TX", true),
		Entry("city alone", []domain.Entity{
			{Type: "City", Text: "Seattle"},
		}, "Seattle", true),
		Entry("california city", []domain.Entity{
			{Type: "CA-City", Text: "San Diego"},
		}, "San Diego, CA", true),
		Entry("city and state win over california city", []domain.Entity{
			{Type: "CA-City", Text: "San Diego"},
			{Type: "City", Text: "Austin"},
			{Type: "StateOrCounty", Text: "TX"},
		}, "Austin, TX", true),
		Entry("first occurrence of each type", []domain.Entity{
			{Type: "City", Text: "Boston"},
			{Type: "City", Text: "Denver"},
			{Type: "StateOrCounty", Text: "MA"},
			{Type: "StateOrCounty", Text: "CO"},
		}, "Boston, MA", true),
		Entry("state without city", []domain.Entity{
			{Type: "StateOrCounty", Text: "TX"},
		}, "", false),
		Entry("no entities", nil, "", false),
	)
})
