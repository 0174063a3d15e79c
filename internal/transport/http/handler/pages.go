package handler

import (
	"html/template"
	"net/http"
)

// The callback is opened in the subject's browser, so outcomes are plain
// HTML pages rather than JSON envelopes.
var pageTpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; background: #2c2f33; color: #ffffff; text-align: center; padding-top: 15vh; }
h1 { color: {{.Accent}}; }
p { color: #b9bbbe; }
</style>
</head>
<body>
<h1>{{.Heading}}</h1>
<p>{{.Body}}</p>
</body>
</html>
`))

type page struct {
	Title   string
	Heading string
	Body    string
	Accent  string
}

func writePage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTpl.Execute(w, p)
}

func successPage(displayName string) page {
	body := "Your account is verified and your role has been granted. You can close this tab and return to the server."
	if displayName != "" {
		body = "Welcome, " + displayName + "! " + body
	}
	return page{Title: "Verified", Heading: "Verification complete", Body: body, Accent: "#57F287"}
}

// failurePage is deliberately identical for every rejection reason; the
// distinction lives in operator logs only.
func failurePage() page {
	return page{
		Title:   "Verification failed",
		Heading: "Verification failed",
		Body:    "This link is invalid or has expired. Return to the server and start verification again.",
		Accent:  "#ED4245",
	}
}

func badRequestPage() page {
	return page{
		Title:   "Bad request",
		Heading: "Bad request",
		Body:    "This verification link is malformed. Return to the server and request a new one.",
		Accent:  "#ED4245",
	}
}

func notConfiguredPage() page {
	return page{
		Title:   "Verification unavailable",
		Heading: "Verification is not set up",
		Body:    "Your identity was confirmed, but this server's verification role is missing. Please contact an administrator.",
		Accent:  "#FEE75C",
	}
}
