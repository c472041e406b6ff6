package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gofiber/fiber/v2"
)

// ValidateTwilioSignature validates that the webhook request is from
// Twilio. The signature is HMAC-SHA1 over the full URL plus the sorted
// form parameters, base64 encoded, carried in X-Twilio-Signature.
func ValidateTwilioSignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			return c.Status(401).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		authToken := os.Getenv("TWILIO_AUTH_TOKEN")
		if authToken == "" {
			log.Println("ERROR: TWILIO_AUTH_TOKEN not set")
			return c.Status(500).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		expected := calculateTwilioSignature(authToken, getFullURL(c), formParams)
		if subtle.ConstantTimeCompare([]byte(twilioSignature), []byte(expected)) != 1 {
			return c.Status(401).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL reconstructs the URL Twilio signed. PUBLIC_BASE_URL must be
// set when running behind a proxy that rewrites the Host header.
func getFullURL(c *fiber.Ctx) string {
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		return base + c.Path()
	}
	return fmt.Sprintf("%s://%s%s", c.Protocol(), c.Hostname(), c.Path())
}

// calculateTwilioSignature calculates the expected signature
func calculateTwilioSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url
	for _, k := range keys {
		data += k + params[k]
	}

	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
