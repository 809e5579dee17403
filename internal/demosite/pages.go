package demosite

// Page is one page of the demo site.
type Page struct {
	// Path is the URL path the page is served at.
	Path string

	// Description summarizes which defects the page carries.
	Description string

	// HTML is the full page body.
	HTML string
}

// GetAllPages returns the demo pages. Each page carries a known set of
// usability defects so evaluation results are predictable.
func GetAllPages() []Page {
	return []Page{
		{
			Path:        "/",
			Description: "Landing page: image without alt text, vague link text, no viewport meta",
			HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Acme Widgets</title>
</head>
<body>
    <h1>Welcome to Acme Widgets</h1>
    <img src="/static/hero.jpg" width="640" height="320">
    <p>We make the finest widgets in the tri-state area.
       To learn about our catalog, <a href="/products">click here</a>.</p>
    <p><a href="/about">About us</a> | <a href="/contact">Contact</a></p>
</body>
</html>`,
		},
		{
			Path:        "/products",
			Description: "Product list: heading structure starts at h3, more vague links",
			HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Products - Acme Widgets</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h3>Our Products</h3>
    <ul>
        <li>Widget Classic - <a href="/products/classic">read more</a></li>
        <li>Widget Pro - <a href="/products/pro">read more</a></li>
    </ul>
</body>
</html>`,
		},
		{
			Path:        "/contact",
			Description: "Contact form: unlabeled inputs, missing viewport meta",
			HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Contact - Acme Widgets</title>
</head>
<body>
    <h1>Contact Us</h1>
    <form action="/contact" method="post">
        <input type="text" name="name" placeholder="Name">
        <input type="email" name="email" placeholder="Email">
        <textarea name="message"></textarea>
        <input type="submit" value="Send">
    </form>
</body>
</html>`,
		},
		{
			Path:        "/about",
			Description: "About page: missing title entirely",
			HTML: `<!DOCTYPE html>
<html>
<head>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h1>About Acme</h1>
    <p>Founded in 1982, Acme Widgets has a long and storied history.</p>
    <img src="/static/founders.jpg">
</body>
</html>`,
		},
		{
			Path:        "/products/classic",
			Description: "Clean page with no defects, as a control",
			HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Widget Classic - Acme Widgets</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h1>Widget Classic</h1>
    <img src="/static/classic.jpg" alt="Widget Classic product photo">
    <p>The original. <a href="/contact">Ask us about volume pricing</a>.</p>
</body>
</html>`,
		},
		{
			Path:        "/products/pro",
			Description: "Pro page: everything wrong at once",
			HTML: `<!DOCTYPE html>
<html>
<head>
</head>
<body>
    <h2>Widget Pro</h2>
    <img src="/static/pro.jpg">
    <form action="/buy" method="post">
        <input type="text" name="quantity">
        <input type="submit" value="Buy">
    </form>
    <p><a href="/products">here</a></p>
</body>
</html>`,
		},
	}
}
