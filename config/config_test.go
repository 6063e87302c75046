package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskchat/config"
)

var _ = Describe("Config", func() {
	It("loads a complete config file", func() {
		_, file := writeFixture("taskchat.hcl", minimalModelHCL()+`
assistant {
  model           = "gemini"
  turn_timeout    = 45
  max_tool_rounds = 4
  system_prompt   = "Be terse."
}

storage {
  backend = "sqlite"
  path    = "/tmp/taskchat.db"
}

server {
  listen = ":9090"
}
`)

		cfg, err := config.LoadAndValidate(file)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Models).To(HaveLen(1))
		Expect(cfg.Models[0].Provider).To(Equal(config.ProviderGemini))
		Expect(cfg.Models[0].ModelName).To(Equal("gemini-2.0-flash"))

		Expect(cfg.Assistant.TurnTimeoutSecs).To(Equal(45))
		Expect(cfg.Assistant.MaxToolRounds).To(Equal(4))
		Expect(cfg.Assistant.SystemPrompt).To(Equal("Be terse."))

		Expect(cfg.Storage.Backend).To(Equal("sqlite"))
		Expect(cfg.Storage.Path).To(Equal("/tmp/taskchat.db"))
		Expect(cfg.Server.Listen).To(Equal(":9090"))
	})

	It("applies defaults for omitted settings", func() {
		_, file := writeFixture("taskchat.hcl", minimalModelHCL()+minimalAssistantHCL())

		cfg, err := config.LoadAndValidate(file)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Assistant.TurnTimeoutSecs).To(Equal(30))
		Expect(cfg.Assistant.MaxToolRounds).To(Equal(8))
		Expect(cfg.Server.Listen).To(Equal(":8080"))
	})

	It("merges blocks across files in a directory", func() {
		dir := writeFixtures(map[string]string{
			"models.hcl":    minimalModelHCL(),
			"assistant.hcl": minimalAssistantHCL(),
		})

		cfg, err := config.LoadAndValidate(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Models).To(HaveLen(1))
		Expect(cfg.Assistant).NotTo(BeNil())
	})

	It("interpolates environment variables via env", func() {
		os.Setenv("TASKCHAT_TEST_KEY", "from-env")
		DeferCleanup(os.Unsetenv, "TASKCHAT_TEST_KEY")

		_, file := writeFixture("taskchat.hcl", `
model "gemini" {
  provider   = "gemini"
  model_name = "gemini-2.0-flash"
  api_key    = env.TASKCHAT_TEST_KEY
}
`+minimalAssistantHCL())

		cfg, err := config.LoadAndValidate(file)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Models[0].APIKey).To(Equal("from-env"))
	})

	It("rejects a config without an assistant block", func() {
		_, file := writeFixture("taskchat.hcl", minimalModelHCL())

		_, err := config.LoadAndValidate(file)
		Expect(err).To(MatchError(ContainSubstring("assistant")))
	})

	It("rejects an assistant referencing an unknown model", func() {
		_, file := writeFixture("taskchat.hcl", minimalModelHCL()+`
assistant {
  model = "missing"
}
`)

		_, err := config.LoadAndValidate(file)
		Expect(err).To(MatchError(ContainSubstring("not found")))
	})

	It("rejects unsupported providers", func() {
		_, file := writeFixture("taskchat.hcl", `
model "bad" {
  provider   = "alien"
  model_name = "x"
  api_key    = "k"
}
`+minimalAssistantHCL())

		_, err := config.LoadAndValidate(file)
		Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
	})

	It("resolves models by label", func() {
		_, file := writeFixture("taskchat.hcl", minimalModelHCL()+minimalAssistantHCL())

		cfg, err := config.LoadAndValidate(file)
		Expect(err).NotTo(HaveOccurred())

		model, err := cfg.ResolveModel("gemini")
		Expect(err).NotTo(HaveOccurred())
		Expect(model.ModelName).To(Equal("gemini-2.0-flash"))

		_, err = cfg.ResolveModel("nope")
		Expect(err).To(HaveOccurred())
	})
})
