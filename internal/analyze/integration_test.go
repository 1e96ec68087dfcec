package analyze_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildfacts/buildfacts/internal/analyze"
	"github.com/buildfacts/buildfacts/internal/dockerfile"
)

// analyzeSource runs the full pipeline: parse, adapt, analyze.
func analyzeSource(t *testing.T, src string) *analyze.Analysis {
	t.Helper()
	res, err := dockerfile.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return analyze.Analyze(res.StageSequence(), res.InstructionSequence())
}

func strPtr(s string) *string { return &s }

func TestAnalyzeDockerfile_MultistageWithSharedBase(t *testing.T) {
	src := `
FROM docker.abc.com/base-images/python:3.13-debian@sha256:55f1d15ef4c37870e23c03e89ad238940b55c8ede9f13fac4b7d71c7955f1053 AS base

LABEL org.opencontainers.image.title="My App" \
      org.opencontainers.image.version="1.0" \
      org.opencontainers.image.authors="john@example.com"

ENV PYTHONPATH=/src \
    PYTHONUNBUFFERED=1 \
    REQUESTS_CA_BUNDLE=/etc/ssl/certs/ca-certificates.crt \
    PATH="/home/appuser/.local/bin:\$PATH"
WORKDIR /src
USER root:root

RUN apt-get update && \
    apt-get install --no-install-recommends -y postgresql-client curl git && \
    apt-get autoremove -y && \
    apt-get clean && \
    rm -rf /var/lib/apt/lists/*

RUN pip install --no-cache-dir --upgrade pip
COPY --chown=1000:1000 requirements.txt ./
RUN pip install --no-cache-dir -r requirements.txt

FROM base AS test
COPY --chown=1000:1000 test-requirements.txt ./
USER 1000:1000
RUN pip install --user --no-cache-dir -r test-requirements.txt
COPY ./app ./app
COPY ./test ./test

FROM base
COPY --chown=1000:1000 ./app ./app
USER 1000:1000
ARG GIT_COMMIT
ENV GIT_COMMIT=\$GIT_COMMIT
EXPOSE 5000

CMD ["uvicorn", "--host", "0.0.0.0", "--port", "5000", "app.main:app"]`

	const pythonImage = "docker.abc.com/base-images/python:3.13-debian@sha256:55f1d15ef4c37870e23c03e89ad238940b55c8ede9f13fac4b7d71c7955f1053"

	want := &analyze.Analysis{
		NumStages: 3,
		Images: []analyze.Image{
			{Full: "base", Components: &analyze.ImageComponents{Name: "base"}},
			{Full: pythonImage, Components: &analyze.ImageComponents{
				Registry: "docker.abc.com",
				Name:     "base-images/python",
				Tag:      "3.13-debian",
				Digest:   "sha256:55f1d15ef4c37870e23c03e89ad238940b55c8ede9f13fac4b7d71c7955f1053",
			}},
		},
		StageNames:     []string{"base", "test"},
		CopyFromStages: []string{},
		AddFromStages:  []string{},
		Multistage: analyze.MultistageAnalysis{
			IsMultistage:           true,
			StagesUsedAsBaseImages: []string{"base"},
			StagesCopiedFrom:       []string{},
			StagesAddedFrom:        []string{},
			UnusedStages:           []string{"test"},
		},
		ExposedPorts: []string{"5000"},
		Instructions: analyze.InstructionStats{
			TotalCount: 22,
			ByKind: map[string]int{
				"ARG": 1, "CMD": 1, "COPY": 5, "ENV": 2, "EXPOSE": 1,
				"FROM": 3, "LABEL": 1, "RUN": 4, "USER": 3, "WORKDIR": 1,
			},
		},
		Args: map[string]*string{"GIT_COMMIT": nil},
		Labels: map[string]string{
			"org.opencontainers.image.title":   "My App",
			"org.opencontainers.image.version": "1.0",
			"org.opencontainers.image.authors": "john@example.com",
		},
		EnvVars: map[string]string{
			"PYTHONPATH":         "/src",
			"PYTHONUNBUFFERED":   "1",
			"REQUESTS_CA_BUNDLE": "/etc/ssl/certs/ca-certificates.crt",
			"PATH":               "/home/appuser/.local/bin:$PATH",
			"GIT_COMMIT":         "$GIT_COMMIT",
		},
		Stages: []analyze.StageSummary{
			{Index: 0, BaseImage: pythonImage, Name: "base"},
			{Index: 1, BaseImage: "base", Name: "test"},
			{Index: 2, BaseImage: "base"},
		},
		RunCommands: []string{"apt-get", "pip", "rm"},
	}

	require.Equal(t, want, analyzeSource(t, src))
}

func TestAnalyzeDockerfile_SingleStage(t *testing.T) {
	src := `
FROM node:20-alpine

# Set working directory
WORKDIR /app

# Copy package files
COPY package*.json ./

# Install dependencies
RUN npm install

# Copy application source code
COPY . .

# Create non-root user
RUN addgroup -g 1001 -S nodejs && \
    adduser -S nextjs -u 1001

# Change ownership of the app directory
RUN chown -R nextjs:nodejs /app

# Switch to non-root user
USER nextjs

# Expose port
EXPOSE 3000

# Set environment variable
ENV NODE_ENV=production

# Start the application
CMD ["npm", "start"]
`

	want := &analyze.Analysis{
		NumStages: 1,
		Images: []analyze.Image{
			{Full: "node:20-alpine", Components: &analyze.ImageComponents{Name: "node", Tag: "20-alpine"}},
		},
		StageNames:     []string{},
		CopyFromStages: []string{},
		AddFromStages:  []string{},
		Multistage: analyze.MultistageAnalysis{
			IsMultistage:           false,
			StagesUsedAsBaseImages: []string{},
			StagesCopiedFrom:       []string{},
			StagesAddedFrom:        []string{},
			UnusedStages:           []string{},
		},
		ExposedPorts: []string{"3000"},
		Instructions: analyze.InstructionStats{
			TotalCount: 11,
			ByKind: map[string]int{
				"CMD": 1, "COPY": 2, "ENV": 1, "EXPOSE": 1,
				"FROM": 1, "RUN": 3, "USER": 1, "WORKDIR": 1,
			},
		},
		Args:    map[string]*string{},
		Labels:  map[string]string{},
		EnvVars: map[string]string{"NODE_ENV": "production"},
		Stages: []analyze.StageSummary{
			{Index: 0, BaseImage: "node:20-alpine"},
		},
		RunCommands: []string{"addgroup", "adduser", "chown", "npm"},
	}

	require.Equal(t, want, analyzeSource(t, src))
}

func TestAnalyzeDockerfile_CopyFromAndAddFrom(t *testing.T) {
	src := `
FROM node:20-alpine AS dependencies
WORKDIR /app
COPY package*.json ./
RUN npm ci --only=production && \
    npm cache clean --force

FROM node:20-alpine AS builder
WORKDIR /app
COPY package*.json ./
RUN npm ci
COPY src/ ./src/
COPY public/ ./public/
COPY tsconfig.json ./
RUN npm run build

FROM alpine:3.18 AS config-builder
WORKDIR /configs
RUN echo "server.port=8080" > app.properties && \
    echo "database.host=localhost" >> app.properties && \
    echo "Generated config" > app.conf && \
    mkdir -p assets && \
    echo "Asset file content" > assets/data.txt

FROM node:20-alpine AS production
WORKDIR /app

RUN addgroup -g 1001 -S nodejs && \
    adduser -S nextjs -u 1001

COPY --from=dependencies /app/node_modules ./node_modules

COPY --from=builder /app/dist ./dist
COPY --from=builder /app/public ./public

ADD --from=config-builder /configs/app.properties ./config/
ADD --from=config-builder /configs/app.conf ./config/
ADD --from=config-builder /configs/assets ./assets/

COPY package*.json ./
COPY server.js ./

RUN chown -R nextjs:nodejs /app
USER nextjs

EXPOSE 8080

HEALTHCHECK --interval=30s --timeout=3s --start-period=5s --retries=3 \
    CMD curl -f http://localhost:8080/health || exit 1

CMD ["node", "server.js"]
`

	want := &analyze.Analysis{
		NumStages: 4,
		Images: []analyze.Image{
			{Full: "alpine:3.18", Components: &analyze.ImageComponents{Name: "alpine", Tag: "3.18"}},
			{Full: "node:20-alpine", Components: &analyze.ImageComponents{Name: "node", Tag: "20-alpine"}},
		},
		StageNames:     []string{"builder", "config-builder", "dependencies", "production"},
		CopyFromStages: []string{"builder", "dependencies"},
		AddFromStages:  []string{"config-builder"},
		Multistage: analyze.MultistageAnalysis{
			IsMultistage:           true,
			StagesUsedAsBaseImages: []string{},
			StagesCopiedFrom:       []string{"builder", "dependencies"},
			StagesAddedFrom:        []string{"config-builder"},
			UnusedStages:           []string{"production"},
		},
		ExposedPorts: []string{"8080"},
		Instructions: analyze.InstructionStats{
			TotalCount: 31,
			ByKind: map[string]int{
				"ADD": 3, "CMD": 1, "COPY": 10, "EXPOSE": 1, "FROM": 4,
				"HEALTHCHECK": 1, "RUN": 6, "USER": 1, "WORKDIR": 4,
			},
		},
		Args:    map[string]*string{},
		Labels:  map[string]string{},
		EnvVars: map[string]string{},
		Stages: []analyze.StageSummary{
			{Index: 0, BaseImage: "node:20-alpine", Name: "dependencies"},
			{Index: 1, BaseImage: "node:20-alpine", Name: "builder"},
			{Index: 2, BaseImage: "alpine:3.18", Name: "config-builder"},
			{Index: 3, BaseImage: "node:20-alpine", Name: "production"},
		},
		RunCommands: []string{"addgroup", "adduser", "chown", "echo", "mkdir", "npm"},
	}

	require.Equal(t, want, analyzeSource(t, src))
}

func TestAnalyzeDockerfile_CaseInsensitiveInstructions(t *testing.T) {
	src := `
from node:18-alpine as builder
workdir /app
copy package*.json ./
run npm install
copy . .
run npm run build

from nginx:alpine
copy --from=builder /app/dist /usr/share/nginx/html
expose 80
cmd ["nginx", "-g", "daemon off;"]
`

	a := analyzeSource(t, src)

	require.Equal(t, 2, a.NumStages)
	require.Equal(t, []string{"builder"}, a.StageNames)
	require.Equal(t, []string{"builder"}, a.CopyFromStages)
	require.True(t, a.Multistage.IsMultistage)
	require.Equal(t, []string{}, a.Multistage.UnusedStages)
	require.Equal(t, []string{"80"}, a.ExposedPorts)
	require.Equal(t, 10, a.Instructions.TotalCount)
	require.Equal(t, map[string]int{
		"CMD": 1, "COPY": 3, "EXPOSE": 1, "FROM": 2, "RUN": 2, "WORKDIR": 1,
	}, a.Instructions.ByKind)
	require.Equal(t, []string{"npm"}, a.RunCommands)
}

func TestAnalyzeDockerfile_ArgInFrom(t *testing.T) {
	src := `
ARG BASE_IMAGE=node:18-alpine
FROM $BASE_IMAGE AS builder
WORKDIR /app
COPY . .
RUN npm run build

FROM nginx:alpine
COPY --from=builder /app/dist /usr/share/nginx/html
`

	a := analyzeSource(t, src)

	require.Equal(t, []analyze.Image{
		{Full: "$BASE_IMAGE", Components: nil},
		{Full: "nginx:alpine", Components: &analyze.ImageComponents{Name: "nginx", Tag: "alpine"}},
	}, a.Images)
	require.Equal(t, map[string]*string{"BASE_IMAGE": strPtr("node:18-alpine")}, a.Args)
	require.Equal(t, []string{"builder"}, a.CopyFromStages)
	require.True(t, a.Multistage.IsMultistage)
	require.Equal(t, []analyze.StageSummary{
		{Index: 0, BaseImage: "$BASE_IMAGE", Name: "builder"},
		{Index: 1, BaseImage: "nginx:alpine"},
	}, a.Stages)
}

func TestAnalyzeDockerfile_PlatformInFrom(t *testing.T) {
	src := `
FROM --platform=linux/amd64 node:18-alpine AS builder
WORKDIR /app
COPY . .
RUN npm run build

FROM --platform=$BUILDPLATFORM nginx:alpine
COPY --from=builder /app/dist /usr/share/nginx/html
`

	a := analyzeSource(t, src)

	require.Equal(t, []analyze.StageSummary{
		{Index: 0, BaseImage: "node:18-alpine", Name: "builder", Platform: "linux/amd64"},
		{Index: 1, BaseImage: "nginx:alpine", Platform: "$BUILDPLATFORM"},
	}, a.Stages)
	require.Equal(t, []string{"builder"}, a.CopyFromStages)
}

func TestAnalyzeDockerfile_StageUsedAsBaseAndCopySource(t *testing.T) {
	src := `
FROM ubuntu:20.04 AS base
RUN apt-get update && apt-get install -y curl
WORKDIR /app

FROM base AS builder
COPY . .
RUN make build

FROM base
COPY --from=builder /app/dist ./
CMD ["./app"]
`

	a := analyzeSource(t, src)

	require.Equal(t, analyze.MultistageAnalysis{
		IsMultistage:           true,
		StagesUsedAsBaseImages: []string{"base"},
		StagesCopiedFrom:       []string{"builder"},
		StagesAddedFrom:        []string{},
		UnusedStages:           []string{},
	}, a.Multistage)
	require.Equal(t, []string{"base", "builder"}, a.StageNames)
	require.Equal(t, []string{"apt-get", "make"}, a.RunCommands)
}

func TestAnalyzeDockerfile_ComplexDependencyChain(t *testing.T) {
	src := `
FROM alpine:3.18 AS source
RUN echo "source data" > /data.txt

FROM ubuntu:20.04 AS processor
COPY --from=source /data.txt ./
RUN cat data.txt > processed.txt

FROM node:18-alpine AS builder
ADD --from=processor /processed.txt ./
COPY . .
RUN npm run build

FROM nginx:alpine
COPY --from=builder /app/dist /usr/share/nginx/html
ADD --from=source /data.txt /usr/share/nginx/html/
`

	a := analyzeSource(t, src)

	require.Equal(t, analyze.MultistageAnalysis{
		IsMultistage:           true,
		StagesUsedAsBaseImages: []string{},
		StagesCopiedFrom:       []string{"builder", "source"},
		StagesAddedFrom:        []string{"processor", "source"},
		UnusedStages:           []string{},
	}, a.Multistage)
	require.Equal(t, []string{"builder", "processor", "source"}, a.StageNames)
	require.Equal(t, []string{"builder", "source"}, a.CopyFromStages)
	require.Equal(t, []string{"processor", "source"}, a.AddFromStages)
	require.Equal(t, []string{"cat", "echo", "npm"}, a.RunCommands)
}

func TestAnalyzeDockerfile_UnreferencedStages(t *testing.T) {
	src := `
FROM ubuntu:20.04 AS unused-stage
RUN apt-get update

FROM alpine:3.18 AS another-unused
RUN apk add --no-cache curl

FROM node:18-alpine AS builder
WORKDIR /app
COPY . .
RUN npm run build

FROM nginx:alpine
COPY --from=builder /app/dist /usr/share/nginx/html
`

	a := analyzeSource(t, src)

	require.True(t, a.Multistage.IsMultistage)
	require.Equal(t, []string{"another-unused", "unused-stage"}, a.Multistage.UnusedStages)
	require.Equal(t, []string{"builder"}, a.Multistage.StagesCopiedFrom)
	require.Len(t, a.Images, 4)
}

func TestAnalyzeDockerfile_ScratchImage(t *testing.T) {
	src := `
FROM scratch
COPY binary /
CMD ["/binary"]
`

	a := analyzeSource(t, src)

	require.Equal(t, 1, a.NumStages)
	require.False(t, a.Multistage.IsMultistage)
	require.Equal(t, []analyze.Image{
		{Full: "scratch", Components: &analyze.ImageComponents{Name: "scratch"}},
	}, a.Images)
	require.Equal(t, 3, a.Instructions.TotalCount)
}
