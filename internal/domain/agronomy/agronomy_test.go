package agronomy_test

import (
	"testing"

	"github.com/okian/robusta/internal/domain/agronomy"
	"github.com/okian/robusta/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func TestSuitabilityScores(t *testing.T) {
	Convey("Given the elevation scorer", t, func() {
		Convey("Then the optimum scores 1 and the band edges score 0", func() {
			So(agronomy.ElevationScore(900), ShouldEqual, 1.0)
			So(agronomy.ElevationScore(600), ShouldEqual, 0.0)
			So(agronomy.ElevationScore(1200), ShouldEqual, 0.0)
		})

		Convey("Then far-off elevations clamp to 0", func() {
			So(agronomy.ElevationScore(0), ShouldEqual, 0.0)
			So(agronomy.ElevationScore(3000), ShouldEqual, 0.0)
		})

		Convey("Then every elevation stays in [0,1]", func() {
			for e := 0.0; e <= 3000; e += 37.5 {
				s := agronomy.ElevationScore(e)
				So(s, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Then the falloff is linear", func() {
			So(agronomy.ElevationScore(750), ShouldAlmostEqual, 0.5, tolerance)
		})
	})

	Convey("Given the temperature scorer", t, func() {
		So(agronomy.TemperatureScore(19.5), ShouldEqual, 1.0)
		So(agronomy.TemperatureScore(32.5), ShouldEqual, 0.0)
		So(agronomy.TemperatureScore(-10), ShouldEqual, 0.0)
		So(agronomy.TemperatureScore(26), ShouldAlmostEqual, 0.5, tolerance)
	})

	Convey("Given the rainfall scorer", t, func() {
		Convey("Then it saturates at the optimum", func() {
			So(agronomy.RainfallScore(100), ShouldAlmostEqual, 0.5, tolerance)
			So(agronomy.RainfallScore(200), ShouldEqual, 1.0)
			So(agronomy.RainfallScore(1000), ShouldEqual, 1.0)
		})

		Convey("Then no rainfall scores 0", func() {
			So(agronomy.RainfallScore(0), ShouldEqual, 0.0)
		})
	})

	Convey("Given the soil scorers", t, func() {
		So(agronomy.SoilSuitability(6.0), ShouldEqual, 1.0)
		So(agronomy.SoilSuitability(4.5), ShouldEqual, 0.0)
		So(agronomy.SoilSuitability(14), ShouldEqual, 0.0)
		So(agronomy.MoistureSuitability(35), ShouldEqual, 1.0)
		So(agronomy.MoistureSuitability(70), ShouldEqual, 1.0)
		So(agronomy.MoistureSuitability(0), ShouldEqual, 0.0)
		So(agronomy.MoistureSuitability(17.5), ShouldAlmostEqual, 0.5, tolerance)
	})
}

func TestCompositeIndices(t *testing.T) {
	Convey("Given an ideal site", t, func() {
		Convey("Then both climate variants score 1", func() {
			So(agronomy.ClimateSuitability(19.5, 200, 900), ShouldAlmostEqual, 1.0, tolerance)
			So(agronomy.ClimateSuitabilityFeature(19.5, 200, 900), ShouldAlmostEqual, 1.0, tolerance)
		})

		Convey("Then stress is zero", func() {
			So(agronomy.EnvironmentalStress(19.5, 200, 6.0, 900), ShouldEqual, 0.0)
		})
	})

	Convey("Given a site with only elevation off-optimum", t, func() {
		Convey("Then the variants weight elevation differently", func() {
			So(agronomy.ClimateSuitability(19.5, 200, 600), ShouldAlmostEqual, 0.6, tolerance)
			So(agronomy.ClimateSuitabilityFeature(19.5, 200, 600), ShouldAlmostEqual, 0.8, tolerance)
		})
	})

	Convey("Given stress terms beyond their ranges", t, func() {
		Convey("Then the terms are averaged before clamping", func() {
			// elevation term alone is 3.0; mean is 0.75
			So(agronomy.EnvironmentalStress(19.5, 200, 6.0, 0), ShouldAlmostEqual, 0.75, tolerance)
			So(agronomy.EnvironmentalStress(50, 1000, 14, 3000), ShouldEqual, 1.0)
		})
	})

	Convey("Given the overall quality index", t, func() {
		So(agronomy.OverallQualityIndex(1, 1, 1, 0), ShouldAlmostEqual, 1.0, tolerance)
		So(agronomy.OverallQualityIndex(0, 0, 0, 1), ShouldEqual, 0.0)
		So(agronomy.OverallQualityIndex(0.5, 0.5, 0.5, 0.5), ShouldAlmostEqual, 0.5, tolerance)
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given a site and the default params", t, func() {
		p := agronomy.DefaultParams()
		site := model.Site{ElevationM: 900, TemperatureC: 19.5, RainfallMM: 200, SoilPH: 6.0, SoilMoisturePct: 25}

		Convey("When the site is evaluated", func() {
			prof := p.Evaluate(site)

			Convey("Then the profile carries every index", func() {
				So(prof.ElevationScore, ShouldEqual, 1.0)
				So(prof.ClimateSuitability, ShouldAlmostEqual, 1.0, tolerance)
				So(prof.MoistureSuitability, ShouldAlmostEqual, 25.0/35, tolerance)
				So(prof.EnvironmentalStress, ShouldEqual, 0.0)
				So(prof.OverallQualityIndex, ShouldAlmostEqual, 0.8+0.2*25.0/35, tolerance)
			})

			Convey("Then rounding keeps three decimals", func() {
				So(prof.Rounded().MoistureSuitability, ShouldEqual, 0.714)
			})
		})

		Convey("When a stress override is supplied", func() {
			stress := 0.5
			prof := p.EvaluateWithStress(site, &stress)

			Convey("Then it replaces the computed stress", func() {
				So(prof.EnvironmentalStress, ShouldEqual, 0.5)
				So(prof.OverallQualityIndex, ShouldAlmostEqual, 0.6+0.2*25.0/35+0.1, tolerance)
			})
		})

		Convey("When custom optima are used", func() {
			p.ElevationCenter = 1000
			So(p.ElevationScore(1000), ShouldEqual, 1.0)
			So(agronomy.ElevationScore(1000), ShouldBeLessThan, 1.0)
		})
	})
}
