package logreader

// DemoLines is a small built-in sample so the analyzer can run
// without any input file.
var DemoLines = []string{
	`127.0.0.1 - - [10/Oct/2024:13:55:36 +0000] "GET / HTTP/1.1" 200 1024`,
	`127.0.0.1 - - [10/Oct/2024:13:55:37 +0000] "GET /products?category=oil HTTP/1.1" 200 2048`,
	`10.0.0.5 - - [10/Oct/2024:13:55:40 +0000] "GET /admin HTTP/1.1" 403 512`,
	`10.0.0.5 - - [10/Oct/2024:13:55:41 +0000] "GET /wp-login.php HTTP/1.1" 404 321`,
	`10.0.0.5 - - [10/Oct/2024:13:55:42 +0000] "GET /.env HTTP/1.1" 404 123`,
	`203.0.113.9 - - [10/Oct/2024:13:56:00 +0000] "POST /login HTTP/1.1" 500 900`,
	`203.0.113.9 - - [10/Oct/2024:13:56:10 +0000] "GET /api/orders HTTP/1.1" 200 777`,
}
