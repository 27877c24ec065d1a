package engine_test

import (
	"testing"
	"time"

	"github.com/okian/robusta/internal/domain/agronomy"
	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/forecast"
	"github.com/okian/robusta/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGradeSample(t *testing.T) {
	e := engine.New()

	Convey("Given a legacy sample request", t, func() {
		req := engine.SampleRequest{
			Altitude:         engine.Float64(900),
			ProcessingMethod: engine.Int(0),
			Colors:           engine.Int(2),
			Moisture:         engine.Float64(13),
		}

		Convey("When it is graded", func() {
			res, err := e.GradeSample(req)
			So(err, ShouldBeNil)

			Convey("Then the full cupping estimate drives the grade", func() {
				So(res.CuppingScore, ShouldEqual, 94.6)
				So(res.PredictedQualityGrade, ShouldEqual, model.GradeFine)
				So(res.PNSGrade, ShouldEqual, 1)
				So(res.TotalDefects, ShouldEqual, 0)
			})
		})

		Convey("When defect counts are supplied", func() {
			req.PrimaryDefects = engine.Int(2)
			req.SecondaryDefects = engine.Int(8)
			res, err := e.GradeSample(req)
			So(err, ShouldBeNil)
			So(res.TotalDefects, ShouldEqual, 10)
			So(res.TotalDefectPct, ShouldEqual, 0.43)
			// 94.6 - 5 - 6
			So(res.CuppingScore, ShouldEqual, 83.6)
			So(res.PredictedQualityGrade, ShouldEqual, model.GradePremium)
		})

		Convey("When a required field is missing", func() {
			for field, mutate := range map[string]func(*engine.SampleRequest){
				"processing_method": func(r *engine.SampleRequest) { r.ProcessingMethod = nil },
				"colors":            func(r *engine.SampleRequest) { r.Colors = nil },
				"moisture":          func(r *engine.SampleRequest) { r.Moisture = nil },
			} {
				r := req
				mutate(&r)
				_, err := e.GradeSample(r)
				So(model.IsValidation(err), ShouldBeTrue)
				So(err.Error(), ShouldEqual, field+" is required")
			}
		})

		Convey("When the engine uses a different elevation optimum", func() {
			params := agronomy.DefaultParams()
			params.ElevationCenter = 1500
			res, err := engine.New(engine.WithParams(params)).GradeSample(req)
			So(err, ShouldBeNil)

			Convey("Then the cupping estimate scores altitude against it", func() {
				// 900 masl is outside 1500 ± 300, so elevation scores 0: qi 0.73
				So(res.CuppingScore, ShouldEqual, 89.6)
				So(res.PredictedQualityGrade, ShouldEqual, model.GradeFine)
			})
		})

		Convey("When the colour code is unknown", func() {
			req.Colors = engine.Int(7)
			_, err := e.GradeSample(req)
			So(model.IsValidation(err), ShouldBeTrue)
		})

		Convey("When a defect count is negative", func() {
			req.SecondaryDefects = engine.Int(-1)
			_, err := e.GradeSample(req)
			So(model.IsValidation(err), ShouldBeTrue)
		})
	})
}

// gradeRequest carries only the fields a grade prediction requires.
func gradeRequest() engine.GradeRequest {
	return engine.GradeRequest{PlantAgeMonths: engine.Int(48), BeanScreenMM: engine.Float64(6.5)}
}

func yieldRequest() engine.YieldRequest {
	return engine.YieldRequest{PlantAgeMonths: engine.Int(48)}
}

func TestPredictGrade(t *testing.T) {
	e := engine.New()

	Convey("Given a grade request with every optional field defaulted", t, func() {
		res, err := e.PredictGrade(gradeRequest())
		So(err, ShouldBeNil)

		Convey("Then the quality-index cupping path is used", func() {
			So(res.CuppingScore, ShouldEqual, 93.86)
			So(res.PredictedGrade, ShouldEqual, model.GradeFine)
			So(res.BeanSizeClass, ShouldEqual, model.SizeMedium)
			So(res.OverallQualityIndex, ShouldEqual, 0.943)
			So(res.ElevationCategory, ShouldEqual, engine.ElevationOptimal)
		})

		Convey("Then omitted defect counts are zero", func() {
			So(res.PrimaryDefects, ShouldEqual, 0)
			So(res.SecondaryDefects, ShouldEqual, 0)
			So(res.TotalDefectCount, ShouldEqual, 0)
			So(res.TotalDefectPct, ShouldEqual, 0.0)
		})
	})

	Convey("Given a grade request missing a required field", t, func() {
		for field, mutate := range map[string]func(*engine.GradeRequest){
			"plant_age_months":    func(r *engine.GradeRequest) { r.PlantAgeMonths = nil },
			"bean_screen_size_mm": func(r *engine.GradeRequest) { r.BeanScreenMM = nil },
		} {
			req := gradeRequest()
			mutate(&req)
			_, err := e.PredictGrade(req)
			So(model.IsValidation(err), ShouldBeTrue)
			So(err.Error(), ShouldEqual, field+" is required")
		}

		_, err := e.PredictGrade(engine.GradeRequest{})
		So(model.IsValidation(err), ShouldBeTrue)
	})

	Convey("Given a supplied quality score", t, func() {
		req := gradeRequest()
		req.QualityScore = engine.Float64(79.5)
		res, err := e.PredictGrade(req)
		So(err, ShouldBeNil)

		Convey("Then it replaces the estimate", func() {
			So(res.CuppingScore, ShouldEqual, 79.5)
			So(res.PredictedGrade, ShouldEqual, model.GradeCommercial)
		})
	})

	Convey("Given a stress override", t, func() {
		req := gradeRequest()
		req.EnvironmentalStress = engine.Float64(1)
		res, err := e.PredictGrade(req)
		So(err, ShouldBeNil)
		So(res.CuppingScore, ShouldEqual, 89.86)
	})

	Convey("Given a sub-optimal elevation", t, func() {
		req := gradeRequest()
		req.ElevationM = engine.Float64(1300)
		res, err := e.PredictGrade(req)
		So(err, ShouldBeNil)
		So(res.ElevationCategory, ShouldEqual, engine.ElevationSubOptimal)
		So(res.ElevationScore, ShouldEqual, 0.0)
	})

	Convey("Given out-of-range inputs", t, func() {
		req := gradeRequest()
		req.BeanScreenMM = engine.Float64(10)
		_, err := e.PredictGrade(req)
		So(model.IsValidation(err), ShouldBeTrue)

		req = gradeRequest()
		req.PrimaryDefects = engine.Int(51)
		_, err = e.PredictGrade(req)
		So(model.IsValidation(err), ShouldBeTrue)
	})
}

func TestForecastYield(t *testing.T) {
	e := engine.New()

	Convey("Given a yield request with defaults", t, func() {
		res, err := e.ForecastYield(yieldRequest())
		So(err, ShouldBeNil)

		Convey("Then five years are forecast from a four year old lot", func() {
			So(res.ForecastData, ShouldHaveLength, forecast.DefaultYears)
			So(res.ForecastData[0].AgeMonths, ShouldEqual, 60)
			So(res.Summary.ForecastYears, ShouldEqual, 5)
			So(res.SuitabilityScores.ClimateSuitability, ShouldEqual, 1.0)
		})
	})

	Convey("Given a yield request without a plant age", t, func() {
		_, err := e.ForecastYield(engine.YieldRequest{})
		So(model.IsValidation(err), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "plant_age_months is required")
	})

	Convey("Given an explicit horizon and organic practice", t, func() {
		req := yieldRequest()
		req.ForecastYears = engine.Int(10)
		req.FertilizationType = engine.String("Organic")
		res, err := e.ForecastYield(req)
		So(err, ShouldBeNil)
		So(res.ForecastData, ShouldHaveLength, 10)

		plain := yieldRequest()
		plain.ForecastYears = engine.Int(10)
		base, err := e.ForecastYield(plain)
		So(err, ShouldBeNil)
		So(res.ForecastData[2].YieldKgHa, ShouldBeLessThan, base.ForecastData[2].YieldKgHa)
	})

	Convey("Given an engine with a shorter default horizon", t, func() {
		res, err := engine.New(engine.WithForecastYears(3)).ForecastYield(yieldRequest())
		So(err, ShouldBeNil)
		So(res.ForecastData, ShouldHaveLength, 3)
	})

	Convey("Given invalid management fields", t, func() {
		req := yieldRequest()
		req.FarmAreaHa = engine.Float64(0)
		_, err := e.ForecastYield(req)
		So(model.IsValidation(err), ShouldBeTrue)

		req = yieldRequest()
		req.FertilizationType = engine.String("compost")
		_, err = e.ForecastYield(req)
		So(model.IsValidation(err), ShouldBeTrue)

		req = yieldRequest()
		req.ForecastYears = engine.Int(0)
		_, err = e.ForecastYield(req)
		So(model.IsValidation(err), ShouldBeTrue)
	})
}

func TestQualityDistribution(t *testing.T) {
	e := engine.New()

	Convey("Given an explicit quality score", t, func() {
		res, err := e.QualityDistribution(engine.QualityRequest{QualityScore: engine.Float64(0.7)})
		So(err, ShouldBeNil)
		So(res.Fine, ShouldEqual, 0.2)
		So(res.Premium, ShouldEqual, 0.5)
		So(res.Commercial, ShouldEqual, 0.3)
		So(res.QualityScore, ShouldEqual, 0.7)
	})

	Convey("Given no inputs", t, func() {
		res, err := e.QualityDistribution(engine.QualityRequest{})
		So(err, ShouldBeNil)

		Convey("Then the default factors give 0.815", func() {
			So(res.QualityScore, ShouldEqual, 0.815)
			So(res.Fine, ShouldEqual, 0.4)
		})
	})

	Convey("Given only one suitability", t, func() {
		res, err := e.QualityDistribution(engine.QualityRequest{ClimateSuitability: engine.Float64(0)})
		So(err, ShouldBeNil)

		Convey("Then both suitabilities fall back to the default", func() {
			So(res.QualityScore, ShouldEqual, 0.815)
		})
	})

	Convey("Given both suitabilities and factors", t, func() {
		res, err := e.QualityDistribution(engine.QualityRequest{
			ClimateSuitability:  engine.Float64(0.5),
			SoilSuitability:     engine.Float64(0.5),
			FertilizationFactor: engine.Float64(0.5),
			PestFactor:          engine.Float64(0.5),
		})
		So(err, ShouldBeNil)
		So(res.QualityScore, ShouldEqual, 0.5)
		So(res.Commercial, ShouldEqual, 0.6)
	})

	Convey("Given a factor above 1", t, func() {
		_, err := e.QualityDistribution(engine.QualityRequest{PestFactor: engine.Float64(1.1)})
		So(model.IsValidation(err), ShouldBeTrue)
	})
}

func TestRecommend(t *testing.T) {
	e := engine.New()

	Convey("Given a defective lot on a hot lowland site", t, func() {
		req := engine.RecommendationRequest{}
		req.PrimaryDefects = engine.Int(2)
		req.SecondaryDefects = engine.Int(8)
		req.TemperatureC = engine.Float64(30)
		req.ElevationM = engine.Float64(500)

		Convey("When the grade is derived", func() {
			recs, err := e.Recommend(req)
			So(err, ShouldBeNil)

			Convey("Then the lot grades Premium and warnings follow rule order", func() {
				So(recs.Critical[0], ShouldEqual, "Primary defects detected! These are critical quality issues.")
				So(recs.Warnings[0], ShouldEqual, "High secondary defects - Exceeds Fine Robusta standards")
				So(recs.Warnings[5], ShouldStartWith, "Temperature (30.0°C)")
				So(recs.Warnings[6], ShouldStartWith, "Elevation (500.0m)")
				So(recs.Maintenance[0], ShouldEqual, "Excellent! Meets Premium Robusta standards")
			})
		})

		Convey("When the grade is supplied as Commercial", func() {
			req.PredictedGrade = engine.String("Commercial")
			recs, err := e.Recommend(req)
			So(err, ShouldBeNil)

			Convey("Then the grade advice precedes the defect advice", func() {
				So(recs.Critical, ShouldHaveLength, 10)
				So(recs.Critical[0], ShouldEqual, "Coffee graded as Commercial - Below Fine/Premium standards")
				So(recs.Critical[5], ShouldEqual, "Primary defects detected! These are critical quality issues.")
				So(recs.Maintenance, ShouldBeEmpty)
			})
		})

		Convey("When the supplied grade is unknown", func() {
			req.PredictedGrade = engine.String("Specialty")
			_, err := e.Recommend(req)
			So(model.IsValidation(err), ShouldBeTrue)
		})
	})
}

func TestAssess(t *testing.T) {
	e := engine.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a complete measurement set", t, func() {
		m := model.MeasurementSet{
			ElevationM:              900,
			Processing:              model.Washed,
			Color:                   model.BlueGreen,
			MoisturePct:             13,
			BeanScreenMM:            7.5,
			PlantAgeMonths:          60,
			TemperatureC:            19.5,
			RainfallMM:              200,
			SoilPH:                  6.0,
			SoilMoisturePct:         35,
			FarmAreaHa:              2,
			Fertilization:           model.NonOrganic,
			FertilizationFrequency:  3,
			PestManagementFrequency: 3,
		}

		Convey("When it is assessed", func() {
			a, err := e.Assess("a-1", at, m)
			So(err, ShouldBeNil)

			Convey("Then every part of the assessment is filled", func() {
				So(a.ID, ShouldEqual, "a-1")
				So(a.CreatedAt.Equal(at), ShouldBeTrue)
				So(a.Grade, ShouldEqual, model.GradeFine)
				So(a.CuppingScore, ShouldEqual, 94.6)
				So(a.BeanSize, ShouldEqual, model.SizeLarge)
				So(a.Profile.OverallQualityIndex, ShouldEqual, 1.0)
				So(a.Forecast, ShouldHaveLength, forecast.DefaultYears)
				So(a.Recommendations.Maintenance, ShouldHaveLength, 6)
			})

			Convey("Then assessing again gives the same result", func() {
				b, err := e.Assess("a-1", at, m)
				So(err, ShouldBeNil)
				So(b, ShouldResemble, a)
			})
		})

		Convey("When the set is invalid", func() {
			m.FertilizationFrequency = 9
			_, err := e.Assess("a-2", at, m)
			So(model.IsValidation(err), ShouldBeTrue)
		})
	})
}
