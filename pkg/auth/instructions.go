package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieImportGuide explains how to copy the Cookie header of a
// logged-in browser tab for `igharvest auth import`
func ShowCookieImportGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "IMPORTING AN INSTAGRAM SESSION")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A harvest normally logs in through the browser window it opens. To reuse")
	fmt.Fprintln(w, "a session from another browser instead, copy its cookies:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open https://www.instagram.com and log in")
	fmt.Fprintln(w, "  2. Open Developer Tools (F12, or Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "  3. Network tab, refresh, click any request to instagram.com")
	fmt.Fprintln(w, "  4. Under Request Headers copy the whole value of 'Cookie:'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The value must contain sessionid=...; csrftoken is used when present.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECURITY: these cookies give full access to the account. They are kept")
	fmt.Fprintln(w, "in the system keychain or an encrypted file, never in plain text.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

// ShowQuickImportGuide is the one-line version shown before the prompt
func ShowQuickImportGuide(w io.Writer) {
	fmt.Fprintln(w, "F12 → Network → refresh → any instagram.com request → Headers → copy the Cookie value")
	fmt.Fprintln(w, "Type 'help' for detailed instructions")
}
