// Package sql provides query template parsing, parameter binding and SQL
// validation utilities.
package sql

/*
Parameter Template Syntax

# Overview

Saved query text is a Mustache template. Placeholders name the parameters a
query needs:

	SELECT * FROM orders WHERE status = {{ status }}

Whitespace inside the braces is ignored, so {{status}} and {{ status }} are
the same placeholder. {{&status}} and {{{status}}} (unescaped) are accepted
and treated the same. Names need not be identifiers: {{ order-status }} is a
parameter named "order-status".

# Names

ParseParameterNames returns each name once, in order of first appearance.
Dotted references contribute their root name:

	WHERE created_at BETWEEN {{ period.start }} AND {{ period.end }}

yields the single parameter "period". Date range parameters are always used
this way; their execution value carries "start" and "end" members.

Tags nested in sections are collected, the section name itself is not:

	{{#include_archived}} OR archived = {{ archived_flag }}{{/include_archived}}

yields "archived_flag". Text that does not parse as a template (for example
an unclosed section) returns an error; callers keep their current list.

# Binding

SubstituteParameters rewrites placeholders into positional parameters ($1,
$2, ...) and returns the values in binding order. Adapters translate $N to
their own dialect (@p1 for SQL Server). A path used more than once reuses its
position:

	SELECT * FROM transfers WHERE sender = {{ user }} OR receiver = {{ user }}
	-> SELECT * FROM transfers WHERE sender = $1 OR receiver = $1

Sections cannot be expressed with bind parameters and are rejected with
ErrUnsupportedTemplate, as are partials and delimiter changes. Comments are
removed. A placeholder with no value is reported with
ErrMissingParameters.

Bind parameters are values, never SQL. Placeholders cannot stand for table
names, column names or keywords, and a placeholder inside a string literal
is sent as literal text:

	SELECT 'Hello {{ name }}'   -- never bound

FindParametersInStringLiterals reports such placeholders so callers can warn.

# Multi-value parameters

Multi-select enum and dropdown values bind as arrays by default, which suits
PostgreSQL's ANY:

	WHERE status = ANY({{ statuses }})

When values are joined instead (prefix, suffix and separator come from the
parameter's multi-value options) the result is a single string.

# Value checks

CheckParameterForInjection runs libinjection over every string reachable from
an execution value: plain strings, lists, range members and dropdown values.
NormalizeStatement strips one trailing semicolon and rejects text that holds
more than one statement, since adapters wrap the query in a row-limiting
subquery.
*/
