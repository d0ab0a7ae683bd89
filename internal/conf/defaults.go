// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("dataset.source", SourceAPI)
	v.SetDefault("dataset.spreadsheetid", "")
	v.SetDefault("dataset.specimensheet", "Metadata")
	v.SetDefault("dataset.imagesheet", "Image")
	v.SetDefault("dataset.apikey", "")
	v.SetDefault("dataset.credentialsfile", "")
	v.SetDefault("dataset.cachettl", 10*time.Minute)
	v.SetDefault("dataset.exportbaseurl", "")
	v.SetDefault("dataset.encoding", "utf-8")

	v.SetDefault("plantnet.apikey", "")
	v.SetDefault("plantnet.endpoint", "https://my-api.plantnet.org/v2/identify/all")
	v.SetDefault("plantnet.organ", "leaf")
	v.SetDefault("plantnet.timeout", 60*time.Second)
	v.SetDefault("plantnet.ratelimit", 500*time.Millisecond)
	v.SetDefault("plantnet.cachettl", 30*time.Minute)

	v.SetDefault("images.archive", "fs")
	v.SetDefault("images.path", "archive")
	v.SetDefault("images.maxbytes", 20<<20)
	v.SetDefault("images.s3.bucket", "")
	v.SetDefault("images.s3.region", "us-east-1")
	v.SetDefault("images.s3.endpoint", "")
	v.SetDefault("images.s3.pathstyle", false)
	v.SetDefault("images.s3.accesskeyid", "")
	v.SetDefault("images.s3.secretaccesskey", "")

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.port", "8080")
	v.SetDefault("webserver.allowedorigins", []string{"*"})
	v.SetDefault("webserver.debug", false)
	v.SetDefault("webserver.maxuploadbytes", 32<<20)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/biocurate.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
}
