package provider

import (
	"fmt"
	"net/url"
)

// Offline produces the deterministic placeholder artifact used when no
// backend credential is configured, or when every configured backend failed
// at runtime. It performs no network calls.
type Offline struct{}

// offlineContent is the fixed educational filler body. The topic is
// interpolated so the lesson still reads as an answer to the request.
const offlineContent = `## Introduction

Bienvenue dans cette leçon sur **%[1]s** ! Le service de génération est
momentanément indisponible, voici donc un aperçu préparé hors ligne.

## Le Concept Clé

**%[1]s** est un sujet passionnant qui mérite d'être exploré pas à pas.
Commence par observer des exemples autour de toi, puis pose des questions.

## L'Analogie

Imagine que chaque nouvelle notion est une brique : une leçon complète est
un mur que l'on construit brique par brique.

## Résumé

- Chaque sujet se découvre progressivement.
- Reviens plus tard pour une leçon générée complète sur **%[1]s**.`

// offlineImagePrompt is the fixed illustration prompt attached to the
// placeholder, kept so a later regeneration can produce a real image.
const offlineImagePrompt = "A warm, colorful educational illustration about %s, digital art, friendly and inviting"

// offlineNextStep is the generic continuation suggestion.
const offlineNextStep = "Peux-tu me donner un exemple concret ?"

// Placeholder returns the fixed offline result for topic. The image
// reference is an external URL so no bytes are generated locally; a
// requested video is always a simulated substitute.
func (Offline) Placeholder(topic string) *TextResult {
	prompt := fmt.Sprintf(offlineImagePrompt, topic)
	return &TextResult{
		Title:       fmt.Sprintf("À la découverte de : %s", topic),
		Content:     fmt.Sprintf(offlineContent, topic),
		ImagePrompt: prompt,
		NextStep:    offlineNextStep,
		ImageRef: fmt.Sprintf(
			"https://image.pollinations.ai/prompt/%s?width=1280&height=720&model=flux&seed=42",
			url.PathEscape(prompt)),
		Offline: true,
	}
}
