package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/robusta/internal/adapters/http/api"
	"github.com/okian/robusta/internal/adapters/repository"
	service "github.com/okian/robusta/internal/app"
	"github.com/okian/robusta/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

const validMeasurement = `{
	"elevation_masl": 900,
	"processing_method": 0,
	"colors": 2,
	"moisture": 13,
	"primary_defects": 0,
	"secondary_defects": 0,
	"bean_screen_size_mm": 7.5,
	"plant_age_months": 60,
	"monthly_temp_avg_c": 19.5,
	"monthly_rainfall_mm": 200,
	"soil_pH": 6.0,
	"soil_moisture_pct": 35,
	"farm_area_ha": 2,
	"fertilization_type": "non-organic",
	"fertilization_frequency": 3,
	"pest_management_frequency": 3
}`

type harness struct {
	mux *http.ServeMux
	svc *service.Service
}

func newHarness(deps api.Dependencies, svc *service.Service) harness {
	mux := http.NewServeMux()
	api.NewServer(deps, api.WithMaxTopLimit(50), api.WithVersion("test")).Register(context.Background(), mux)
	return harness{mux: mux, svc: svc}
}

func (h harness) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func startedHarness() harness {
	svc := service.New(service.WithWorkerCount(2))
	So(svc.Start(context.Background()), ShouldBeNil)
	return newHarness(svc, svc)
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API", t, func() {
		h := startedHarness()
		Reset(func() { _ = h.svc.Stop(context.Background()) })

		Convey("Then /healthz reports liveness as JSON", func() {
			w := h.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["status"], ShouldEqual, "ok")
			So(body["version"], ShouldEqual, "test")
		})

		Convey("Then /metrics serves the prometheus registry", func() {
			h.do(http.MethodGet, "/healthz", "")
			w := h.do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "robusta_grading_http_requests_total")
		})

		Convey("Then /stats reports the pipeline", func() {
			w := h.do(http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["started"], ShouldEqual, true)
			So(body["worker_count"], ShouldEqual, 2.0)
		})

		Convey("Then wrong methods are refused", func() {
			So(h.do(http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(h.do(http.MethodGet, "/grade", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestLegacyPredict(t *testing.T) {
	Convey("Given the legacy /predict route", t, func() {
		h := startedHarness()
		Reset(func() { _ = h.svc.Stop(context.Background()) })

		Convey("When every required parameter is present", func() {
			w := h.do(http.MethodGet, "/predict?altitude=900&processing_method=0&colors=2&moisture=13", "")

			Convey("Then the sample is graded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["predicted_quality_grade"], ShouldEqual, "Fine")
				So(body["cupping_score"], ShouldEqual, 94.6)
				So(body["total_defects"], ShouldEqual, 0.0)
			})
		})

		Convey("When required parameters are missing", func() {
			Convey("Then the first missing one is named in the error body", func() {
				w := h.do(http.MethodGet, "/predict?colors=2", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w), ShouldResemble, map[string]any{"error": "processing_method is required"})

				w = h.do(http.MethodGet, "/predict?processing_method=1", "")
				So(decode(w)["error"], ShouldEqual, "colors is required")

				w = h.do(http.MethodGet, "/predict?processing_method=1&colors=0", "")
				So(decode(w)["error"], ShouldEqual, "moisture is required")
			})
		})

		Convey("When a parameter is not a number", func() {
			w := h.do(http.MethodGet, "/predict?processing_method=x&colors=0&moisture=12", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldStartWith, "Invalid input parameter")
		})

		Convey("When a code is out of range", func() {
			w := h.do(http.MethodGet, "/predict?processing_method=4&colors=0&moisture=12", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldContainSubstring, "processing_method")
		})
	})
}

func TestModelRoutes(t *testing.T) {
	Convey("Given the JSON model routes", t, func() {
		h := startedHarness()
		Reset(func() { _ = h.svc.Stop(context.Background()) })

		Convey("When /grade is called with only the required fields", func() {
			w := h.do(http.MethodPost, "/grade", `{"plant_age_months": 48, "bean_screen_size_mm": 6.5}`)

			Convey("Then defaults apply and the result is enveloped", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["success"], ShouldEqual, true)
				data := body["data"].(map[string]any)
				So(data["predicted_grade"], ShouldEqual, "Fine")
				So(data["cupping_score"], ShouldEqual, 93.86)
				So(data["elevation_category"], ShouldEqual, "Optimal")
				So(data["secondary_defects"], ShouldEqual, 0.0)
			})
		})

		Convey("When /grade is called with an empty body", func() {
			w := h.do(http.MethodPost, "/grade", "")

			Convey("Then the missing plant age is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "plant_age_months is required")
			})
		})

		Convey("When /grade gets an out-of-range value", func() {
			w := h.do(http.MethodPost, "/grade", `{"plant_age_months": 48, "bean_screen_size_mm": 6.5, "soil_pH": 20}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decode(w)
			So(body["code"], ShouldEqual, "bad_request")
			So(body["message"], ShouldContainSubstring, "soil_pH")
		})

		Convey("When /grade gets malformed JSON", func() {
			w := h.do(http.MethodPost, "/grade", `{"soil_pH": `)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When /forecast-yield asks for three years", func() {
			w := h.do(http.MethodPost, "/forecast-yield", `{"plant_age_months": 48, "forecast_years": 3}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			data := decode(w)["data"].(map[string]any)
			So(data["forecast_data"], ShouldHaveLength, 3)
			So(data["summary"].(map[string]any)["forecast_years"], ShouldEqual, 3.0)
		})

		Convey("When /forecast-yield has no plant age", func() {
			w := h.do(http.MethodPost, "/forecast-yield", `{"forecast_years": 3}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["message"], ShouldContainSubstring, "plant_age_months")
		})

		Convey("When /predict-quality gets a quality score", func() {
			w := h.do(http.MethodPost, "/predict-quality", `{"quality_score": 0.9}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			data := decode(w)["data"].(map[string]any)
			sum := data["fine_probability"].(float64) + data["premium_probability"].(float64) + data["commercial_probability"].(float64)
			So(sum, ShouldAlmostEqual, 1.0, 1e-9)
			So(data["quality_score"], ShouldEqual, 0.9)
		})

		Convey("When /recommendations is given a Commercial grade", func() {
			w := h.do(http.MethodPost, "/recommendations", `{"predicted_grade": "Commercial"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			data := decode(w)["data"].(map[string]any)
			So(data["critical"], ShouldNotBeEmpty)
		})

		Convey("When /recommendations is given an unknown grade", func() {
			w := h.do(http.MethodPost, "/recommendations", `{"predicted_grade": "Excellent"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func waitForStatus(h harness, target string, status int) *httptest.ResponseRecorder {
	deadline := time.Now().Add(3 * time.Second)
	for {
		w := h.do(http.MethodGet, target, "")
		if w.Code == status || time.Now().After(deadline) {
			return w
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAssessmentRoutes(t *testing.T) {
	Convey("Given the assessment routes", t, func() {
		h := startedHarness()
		Reset(func() { _ = h.svc.Stop(context.Background()) })

		Convey("When a measurement set is submitted with an id", func() {
			body := strings.Replace(validMeasurement, "{", `{"assessment_id": "lot-1",`, 1)
			w := h.do(http.MethodPost, "/assessments", body)

			Convey("Then it is accepted and later readable", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w), ShouldResemble, map[string]any{"status": "accepted", "assessment_id": "lot-1", "duplicate": false})

				got := waitForStatus(h, "/assessments/lot-1", http.StatusOK)
				So(got.Code, ShouldEqual, http.StatusOK)
				a := decode(got)
				So(a["grade"], ShouldEqual, "Fine")
				So(a["cupping_score"], ShouldEqual, 94.6)
				So(a["input"].(map[string]any)["fertilization_type"], ShouldEqual, "Non-Organic")

				top := h.do(http.MethodGet, "/assessments/top?limit=5", "")
				So(top.Code, ShouldEqual, http.StatusOK)
				var entries []map[string]any
				So(json.Unmarshal(top.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0]["rank"], ShouldEqual, 1.0)

				dist := h.do(http.MethodGet, "/grades/distribution", "")
				So(dist.Code, ShouldEqual, http.StatusOK)
				var rows []map[string]any
				So(json.Unmarshal(dist.Body.Bytes(), &rows), ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
				So(rows[0]["grade"], ShouldEqual, "Fine")
				So(rows[0]["count"], ShouldEqual, 1.0)
			})

			Convey("Then resubmitting it is acknowledged as a duplicate", func() {
				again := h.do(http.MethodPost, "/assessments", body)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(decode(again)["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When a submission has no id", func() {
			w := h.do(http.MethodPost, "/assessments", validMeasurement)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(decode(w)["assessment_id"], ShouldNotBeEmpty)
		})

		Convey("When a submission is invalid", func() {
			w := h.do(http.MethodPost, "/assessments", strings.Replace(validMeasurement, `"moisture": 13`, `"moisture": 130`, 1))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["message"], ShouldContainSubstring, "moisture")
		})

		Convey("When an unknown assessment is read", func() {
			w := h.do(http.MethodGet, "/assessments/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When top is asked for a bad limit", func() {
			So(h.do(http.MethodGet, "/assessments/top?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodGet, "/assessments/top?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			w := h.do(http.MethodGet, "/assessments/top?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When top is asked without a limit", func() {
			w := h.do(http.MethodGet, "/assessments/top", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})
	})
}

// degradedDeps reports store and queue failures.
type degradedDeps struct {
	*service.Service
	topErr  error
	distErr error
}

func (d degradedDeps) Top(context.Context, int) ([]repository.Entry, error) {
	return nil, d.topErr
}

func (d degradedDeps) Distribution(context.Context) ([]repository.GradeStats, error) {
	return nil, d.distErr
}

func TestErrorMapping(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		svc := service.New()
		h := newHarness(degradedDeps{
			Service: svc,
			topErr:  repository.ErrUnavailable,
			distErr: errors.New("disk on fire"),
		}, svc)

		Convey("Then an open breaker maps to 503", func() {
			w := h.do(http.MethodGet, "/assessments/top", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode(w)["code"], ShouldEqual, "unavailable")
		})

		Convey("Then unexpected failures map to 500 without leaking detail", func() {
			w := h.do(http.MethodGet, "/grades/distribution", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(w)["message"], ShouldEqual, "Internal Server Error")
		})

		Convey("Then submitting to a stopped pipeline maps to 503", func() {
			w := h.do(http.MethodPost, "/assessments", validMeasurement)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given a kind-wrapped error", t, func() {
		cause := errors.New("eof")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: eof")
		})

		Convey("Then a bare kind reads as the kind", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})
	})
}
