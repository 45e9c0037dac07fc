package main

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const storytellerSystemPrompt = `You are a dramatic storyteller for a medieval werewolf game. When players are killed, you tell a short atmospheric story about their fate. Keep it to 2-3 sentences. Be gothic and dramatic, fitting for a village plagued by werewolves.`

// Storyteller generates a dramatic story after deaths in the game.
// onChunk is called with each text chunk as it streams in.
type Storyteller interface {
	Tell(ctx context.Context, history []string, onChunk func(string)) (string, error)
}

type llmStoryteller struct {
	llm          llms.Model
	systemPrompt string
	callOpts     []llms.CallOption
}

func (s *llmStoryteller) Tell(ctx context.Context, history []string, onChunk func(string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"Last night in the village:\n"+strings.Join(history, "\n")+
				"\n\nTell a short dramatic story (2-3 sentences) about what just happened."),
	}

	var fullText strings.Builder
	opts := append(s.callOpts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		text := string(chunk)
		fullText.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
		return nil
	}))

	_, err := s.llm.GenerateContent(ctx, messages, opts...)
	return strings.TrimSpace(fullText.String()), err
}

// buildCallOpts builds LLM call options from the config.
func buildCallOpts(cfg AppConfig) []llms.CallOption {
	var opts []llms.CallOption

	if cfg.StorytellerTemperature != "" {
		if f, err := strconv.ParseFloat(cfg.StorytellerTemperature, 64); err == nil {
			opts = append(opts, llms.WithTemperature(f))
			log.Printf("Storyteller: temperature=%.2f", f)
		} else {
			log.Printf("Storyteller: invalid temperature %q: %v", cfg.StorytellerTemperature, err)
		}
	}

	return opts
}

// initStoryteller builds a storyteller from config, or nil when disabled.
func initStoryteller(cfg AppConfig) Storyteller {
	provider := cfg.StorytellerProvider
	model := cfg.StorytellerModel
	callOpts := buildCallOpts(cfg)

	switch provider {
	case "ollama":
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(cfg.StorytellerOllamaURL))
		if err != nil {
			log.Printf("Storyteller: failed to init Ollama (%s at %s): %v", model, cfg.StorytellerOllamaURL, err)
			return nil
		}
		log.Printf("Storyteller: Ollama model=%s url=%s", model, cfg.StorytellerOllamaURL)
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	case "openai":
		llm, err := openai.New(openai.WithModel(model))
		if err != nil {
			log.Printf("Storyteller: failed to init OpenAI (%s): %v", model, err)
			return nil
		}
		log.Printf("Storyteller: OpenAI model=%s", model)
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	case "claude":
		llm, err := anthropic.New(anthropic.WithModel(model))
		if err != nil {
			log.Printf("Storyteller: failed to init Claude (%s): %v", model, err)
			return nil
		}
		log.Printf("Storyteller: Claude model=%s", model)
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	case "gemini":
		llm, err := googleai.New(context.Background(), googleai.WithDefaultModel(model))
		if err != nil {
			log.Printf("Storyteller: failed to init Gemini (%s): %v", model, err)
			return nil
		}
		log.Printf("Storyteller: Gemini model=%s", model)
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	case "openai-compatible":
		if cfg.StorytellerURL == "" {
			log.Printf("Storyteller: storyteller_url is required for openai-compatible provider")
			return nil
		}
		opts := []openai.Option{
			openai.WithModel(model),
			openai.WithBaseURL(cfg.StorytellerURL),
		}
		if cfg.StorytellerAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.StorytellerAPIKey))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			log.Printf("Storyteller: failed to init openai-compatible (%s at %s): %v", model, cfg.StorytellerURL, err)
			return nil
		}
		log.Printf("Storyteller: openai-compatible model=%s url=%s", model, cfg.StorytellerURL)
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	default:
		log.Printf("Storyteller: disabled (set storyteller_provider to enable)")
		return nil
	}
}

// narrateMorning streams an atmospheric retelling of the night's deaths to
// the channel. Fire-and-forget: the game never waits on the model, and a
// failure only costs flavor text.
func (g *GameState) narrateMorning(events []deathEvent) {
	if g.storyteller == nil || len(events) == 0 {
		return
	}
	history := make([]string, 0, len(events))
	for _, ev := range events {
		history = append(history, g.deathLine(ev))
	}
	st := g.storyteller
	tr := g.transport

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		story, err := st.Tell(ctx, history, nil)
		if err != nil {
			log.Printf("Storyteller: %v", err)
			return
		}
		if story != "" {
			tr.SendChannel(story)
		}
	}()
}
