//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/stablemark/stablemark --repository.default-branch master --repository.path /

// Package stablemark keeps durable identity labels on catalog policies.
package stablemark
