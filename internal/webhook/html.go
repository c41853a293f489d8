package webhook

import "fmt"

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; background: #f6f7f9; margin: 0; }
.card { max-width: 480px; margin: 12vh auto; background: #fff; border-radius: 8px;
        padding: 32px; box-shadow: 0 1px 4px rgba(0,0,0,.08); text-align: center; }
h1 { font-size: 1.3rem; color: #1a1a2e; }
p { color: #555; line-height: 1.5; }
</style>
</head>
<body>
<div class="card">
<h1>%s</h1>
<p>%s</p>
</div>
</body>
</html>`

func renderPage(title, heading, message string) string {
	return fmt.Sprintf(htmlPage, title, heading, message)
}

func unsubscribedPage() string {
	return renderPage("Unsubscribed", "You're unsubscribed",
		"You won't receive any more emails from us. Changed your mind? Just reply to any previous email.")
}

func invalidLinkPage() string {
	return renderPage("Invalid link", "This link isn't valid",
		"The unsubscribe link is incomplete or has been altered. Please use the link exactly as it appears in the email.")
}

func errorPage() string {
	return renderPage("Something went wrong", "Something went wrong",
		"We couldn't process the request right now. Please try again in a few minutes.")
}
