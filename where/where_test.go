package where

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ShiningRocket/MPV-PLAYER/filesystem"
)

func TestWhere(t *testing.T) {
	Convey("Where", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		Convey("Config should honor the environment override", func() {
			t.Setenv(EnvConfigPath, "/custom/config")
			So(Config(), ShouldEqual, "/custom/config")
		})

		Convey("Logs should live under the config directory", func() {
			t.Setenv(EnvConfigPath, "/custom/config")
			So(Logs(), ShouldStartWith, "/custom/config")
		})

		Convey("Temp should resolve to a non-empty path", func() {
			So(Temp(), ShouldNotBeEmpty)
		})
	})
}
