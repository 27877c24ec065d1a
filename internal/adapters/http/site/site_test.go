package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a mux with the service index", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("When / is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then it lists the docs and routes", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var index struct {
					Docs   string   `json:"docs"`
					Routes []string `json:"routes"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &index), ShouldBeNil)
				So(index.Docs, ShouldEqual, "/api-docs")
				So(index.Routes, ShouldContain, "POST /assessments")
			})
		})

		Convey("When an unknown path is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the mux is nil", func() {
			So(func() { Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
