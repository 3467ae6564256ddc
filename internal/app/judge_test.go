package app_test

import (
	"strings"
	"testing"

	"coding-trivia-service/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJudge(t *testing.T) {
	const key = "recursion causes stack overflow when base case missing"

	Convey("Given a long answer key", t, func() {
		Convey("When the answer contains the key's first 20 characters inside extra text", func() {
			v := app.Judge(key, "I think recursion causes stack overflow", 10)

			Convey("Then it is correct and earns the round's points", func() {
				So(v.Correct, ShouldBeTrue)
				So(v.Points, ShouldEqual, 10)
			})
		})

		Convey("When the answer differs only by case", func() {
			v := app.Judge(key, "RECURSION CAUSES STACK OVERFLOW", 10)
			So(v.Correct, ShouldBeTrue)
		})

		Convey("When the answer is just the 20-character prefix", func() {
			// Lenient by choice: the literal prefix is accepted.
			v := app.Judge(key, "recursion causes sta", 10)
			So(v.Correct, ShouldBeTrue)
		})

		Convey("When the answer is one character short of the prefix", func() {
			v := app.Judge(key, "recursion causes st", 10)

			Convey("Then it is wrong and earns nothing", func() {
				So(v.Correct, ShouldBeFalse)
				So(v.Points, ShouldEqual, 0)
			})
		})

		Convey("When the answer is unrelated", func() {
			v := app.Judge(key, "goroutines leak", 10)
			So(v.Correct, ShouldBeFalse)
			So(v.Points, ShouldEqual, 0)
		})
	})

	Convey("Given a key shorter than 20 characters", t, func() {
		Convey("Then the whole key must appear", func() {
			So(app.Judge("Mutex", "use a sync.mutex here", 5).Correct, ShouldBeTrue)
			So(app.Judge("Mutex", "use a mute", 5).Correct, ShouldBeFalse)
		})
	})

	Convey("Given a key with multi-byte characters", t, func() {
		key := strings.Repeat("é", 25)

		Convey("Then truncation counts characters, not bytes", func() {
			So(app.Judge(key, strings.Repeat("É", 20), 3).Correct, ShouldBeTrue)
			So(app.Judge(key, strings.Repeat("é", 19), 3).Correct, ShouldBeFalse)
		})
	})

	Convey("Given any verdict", t, func() {
		answers := []string{"", "x", "recursion causes stack", "no"}
		for _, a := range answers {
			v := app.Judge(key, a, 7)
			Convey("Then points are awarded only when correct: "+a, func() {
				if v.Points > 0 {
					So(v.Correct, ShouldBeTrue)
				}
				if !v.Correct {
					So(v.Points, ShouldEqual, 0)
				}
			})
		}
	})
}
