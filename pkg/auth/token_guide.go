package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes instructions for creating a hub access token
func ShowTokenGuide(w io.Writer, endpoint string) {
	endpoint = strings.TrimRight(endpoint, "/")

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "🔑 HUB ACCESS TOKEN")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Uploading checkpoints needs a token with write access.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   1. Open %s/settings/tokens\n", endpoint)
	fmt.Fprintln(w, "   2. Create a new token with the 'write' role")
	fmt.Fprintln(w, "   3. Copy it and paste it at the prompt below")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "💡 For CI, set HF_TOKEN in the environment instead of logging in.")
	fmt.Fprintln(w, "⚠️  The token grants write access to your repositories. Never commit it.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
