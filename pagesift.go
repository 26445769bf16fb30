// Package pagesift provides a background ingestion pipeline for web pages
// and PDFs. Submitted URLs are fetched in batches, stripped of boilerplate
// by a prioritized rule engine, reduced to their readable content, converted
// to normalized markdown, and scored for quality.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package pagesift
