// Why this file: ./internal/offline/conversational.go
// This short-circuits greetings, thanks, farewells and "how are you"
// with fixed bilingual replies. Matching is on fixed strings, so it
// works identically online and offline and never burns a model call.
package offline

import "strings"

var greetings = []string{"hello", "hi", "hey", "namaste", "नमस्ते", "नमस्कार", "hii", "helo"}
var thanks = []string{"thank", "thanks", "धन्यवाद", "शुक्रिया", "shukriya"}
var farewells = []string{"bye", "goodbye", "अलविदा", "फिर मिलेंगे"}
var howAreYou = []string{"how are you", "कैसे हो", "kaise ho", "kaisa hai"}

const greetingReply = "नमस्ते! 🙏 मैं कृषिमित्र हूं, आपका AI खेती सहायक। " +
	"मैं खेती, फसल, मौसम, और सरकारी योजनाओं के बारे में आपकी मदद कर सकता हूं।\n\n" +
	"Hello! 🙏 I am KrishiMitra, your AI farming assistant. " +
	"I can help you with farming, crops, weather, and government schemes."

const thanksReply = "धन्यवाद! 🙏 खेती में शुभकामनाएं! | Thank you! 🙏 Best wishes for your farming!"

const farewellReply = "अलविदा! 🙏 फिर मिलेंगे! | Goodbye! 🙏 See you again!"

const howAreYouReply = "मैं ठीक हूं! 😊 आपकी क्या मदद कर सकता हूं? | I'm fine! 😊 How can I help you?"

// HandleConversational returns a fixed reply for conversational queries
// (greetings, thanks, farewells), or "" when the query is a real
// question.
func HandleConversational(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, g := range greetings {
		if q == g || strings.HasPrefix(q, g) {
			return greetingReply
		}
	}
	for _, t := range thanks {
		if strings.Contains(q, t) {
			return thanksReply
		}
	}
	for _, b := range farewells {
		if strings.Contains(q, b) {
			return farewellReply
		}
	}
	for _, h := range howAreYou {
		if strings.Contains(q, h) {
			return howAreYouReply
		}
	}
	return ""
}
