package pipeline

import (
	"fmt"
	"strings"

	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/provider"
)

// The pedagogical templates are French by design; only the output language
// is caller-controlled.
const (
	teacherInstruction = "Vous êtes un professeur expert, patient et pédagogue. " +
		"Votre objectif est de vulgariser des concepts complexes pour les rendre accessibles selon le niveau de l'élève."

	storytellerInstruction = "Vous êtes un conteur créatif, captivant et culturellement riche."

	cultureInstruction = "IMPORTANT: Pour les exemples et le contexte, utilisez des références à la culture haïtienne " +
		"(lieux comme la Citadelle ou Jacmel, folklore, proverbes, vie quotidienne en Haïti) " +
		"pour rendre l'apprentissage plus pertinent localement."

	ageAdaptation = `ADAPTATION AU NIVEAU (%s) :
- Pour "Enfants (5-10 ans)" : Utilisez des mots très simples, des phrases courtes, un ton joyeux et tutoyez l'enfant. Utilisez beaucoup d'emojis.
- Pour "Adolescents (11-17 ans)" : Utilisez un ton dynamique, engageant, tutoyez, mais gardez un vocabulaire précis. Reliez le sujet à leurs intérêts.
- Pour "Adultes (18+ ans)" : Utilisez un ton professionnel, vouvoyez, allez en profondeur dans les détails techniques et historiques.`

	educationalStructure = `Créez une leçon structurée sur le sujet : "%s".

Structure obligatoire de la réponse :
1. **Introduction accrocheuse** : Une phrase pour capter l'attention.
2. **Le Concept Clé** : L'explication principale.
3. **L'Analogie** : Une comparaison simple pour comprendre (ex: "Imagine que l'électricité est comme de l'eau...").
4. **Exemple Concret** : Une application dans la vie réelle (si possible en lien avec Haïti si demandé).
5. **Résumé** : Ce qu'il faut retenir en 2 phrases.`

	storyStructure = `Créez une histoire immersive et divertissante sur le sujet : "%s".`
)

// BuildLessonPrompt assembles the instruction payload for a top-level
// generation request.
func BuildLessonPrompt(req lesson.Request, defaultLanguage string) provider.Prompt {
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	var b strings.Builder
	educational := req.Genre == lesson.GenreEducational

	if educational {
		b.WriteString(teacherInstruction)
		b.WriteString("\n\nTÂCHE : ")
		fmt.Fprintf(&b, educationalStructure, req.Topic)
	} else {
		b.WriteString(storytellerInstruction)
		b.WriteString("\n\nTÂCHE : ")
		fmt.Fprintf(&b, storyStructure, req.Topic)
	}

	b.WriteString("\n\nPARAMÈTRES :\n")
	fmt.Fprintf(&b, "- Genre/Format : %s\n", req.Genre.Label())
	fmt.Fprintf(&b, "- Public Cible (Niveau) : %s\n", req.AgeBand.Label())
	fmt.Fprintf(&b, "- Langue de sortie : %s\n", language)
	if req.HaitianCulture {
		b.WriteString(cultureInstruction)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, ageAdaptation, req.AgeBand.Label())

	b.WriteString("\n\nFORMATTAGE :\nUtilisez le Markdown pour bien structurer (Titres #, Gras **, Listes -).\n")

	b.WriteString("\nIMAGE PROMPT (Important) :\n")
	b.WriteString("Générez également une description visuelle EN ANGLAIS pour le générateur d'images (champ 'imagePrompt'). ")
	b.WriteString("Cette description doit représenter le concept clé ou une scène de l'histoire.\n")
	if req.Media == lesson.MediaVideo {
		b.WriteString("Le format final est une VIDÉO : décrivez une scène dynamique avec du mouvement (cinematic, motion).\n")
	}

	b.WriteString(`
Retournez la réponse au format JSON respectant ce schéma :
{
  "title": "Titre de la leçon ou de l'histoire",
  "content": "Le contenu complet en markdown...",
  "imagePrompt": "A detailed artistic description in English for an image generation model..."
}`)

	return provider.Prompt{Text: b.String(), Topic: req.Topic}
}

// BuildFollowUpPrompt assembles the instruction payload for a conversational
// continuation. The transcript is serialized oldest first, each turn tagged
// by role, so the backend answers the latest message without repeating
// earlier ones.
func BuildFollowUpPrompt(req lesson.Request, defaultLanguage string) provider.Prompt {
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	var b strings.Builder
	if req.Genre == lesson.GenreEducational {
		b.WriteString(teacherInstruction)
	} else {
		b.WriteString(storytellerInstruction)
	}

	b.WriteString("\n\nVous poursuivez une conversation existante. ")
	fmt.Fprintf(&b, "Sujet initial : \"%s\". Langue de sortie : %s.\n", req.Topic, language)

	b.WriteString("\nHISTORIQUE DE LA CONVERSATION :\n")
	for _, turn := range req.Context {
		label := "Utilisateur"
		if turn.Role == lesson.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "[%s] %s\n", label, turn.Text)
	}

	b.WriteString(`
TÂCHE :
Répondez directement au dernier message de l'utilisateur, sans répéter les explications déjà données.
Restez dans le ton et le niveau de la conversation.

Retournez la réponse au format JSON respectant ce schéma :
{
  "title": "Titre court de cette réponse",
  "content": "La réponse complète en markdown...",
  "nextStepSuggestion": "Une question de suivi que l'utilisateur pourrait poser ensuite"
}`)

	return provider.Prompt{Text: b.String(), Topic: req.Topic, FollowUp: true}
}

// BuildQuizPrompt assembles the instruction payload for quiz generation
// over a lesson's content.
func BuildQuizPrompt(topic, content string) provider.Prompt {
	var b strings.Builder
	b.WriteString("Vous êtes un professeur qui prépare une évaluation rapide.\n\n")
	fmt.Fprintf(&b, "À partir de la leçon suivante sur \"%s\", créez exactement 5 questions à choix multiples.\n", topic)
	b.WriteString("Chaque question a exactement 3 options, une seule correcte, et une courte explication.\n")
	b.WriteString("Les questions portent uniquement sur le contenu fourni.\n\n")
	b.WriteString("CONTENU DE LA LEÇON :\n")
	b.WriteString(content)
	b.WriteString(`

Retournez un tableau JSON respectant ce schéma :
[
  {
    "question": "...",
    "options": ["...", "...", "..."],
    "correctAnswer": "...",
    "explanation": "..."
  }
]`)

	return provider.Prompt{Text: b.String(), Topic: topic}
}

// BuildImagePrompt composes the final illustration prompt from the
// backend-provided description and the request's style parameters.
func BuildImagePrompt(imagePrompt string, req lesson.Request) string {
	var b strings.Builder
	b.WriteString(imagePrompt)
	fmt.Fprintf(&b, ". \n\nStyle: %s. ", req.Style.Label())
	if req.HaitianCulture {
		b.WriteString("Caribbean colors, vibrant Haitian art influence, tropical atmosphere. ")
	}
	if req.Media == lesson.MediaVideo {
		b.WriteString("Cinematic lighting, dynamic angle, ready for animation. ")
	}
	b.WriteString("\nHigh resolution, detailed, masterpiece.")
	return b.String()
}

// BuildNarrationPrompt wraps the spoken text in delivery instructions for
// the TTS model. The content handed in must already be stripped of headings
// and markup (see NarrationText).
func BuildNarrationPrompt(title, spoken string, educational bool) string {
	tone := "Immersif, captivant et expressif."
	if educational {
		tone = "Pédagogue, chaleureux, clair et encourageant."
	}

	var b strings.Builder
	b.WriteString(`Agissez comme un orateur humain naturel et bienveillant.
Votre tâche est d'expliquer le contenu suivant à l'oral.

RÈGLES DE NARRATION :
1. Ne lisez PAS les titres de sections.
2. Ne lisez PAS les caractères Markdown.
3. Transformez le texte structuré en une conversation fluide.
4. Parlez directement à l'apprenant.
5. Commencez directement l'explication.

`)
	fmt.Fprintf(&b, "Ton : %s\n\nSujet : %s\n\nContenu à oraliser :\n%s", tone, title, spoken)
	return b.String()
}
