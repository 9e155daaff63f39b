package scaffold

import (
	"fmt"
	"strings"

	"monoshift/internal/extract"
)

type goTemplate struct{}

func (goTemplate) LanguageName() string  { return "Go" }
func (goTemplate) Prerequisites() string { return "Go 1.24+" }

func (goTemplate) Dockerfile() string {
	return `FROM golang:1.24-alpine AS builder
WORKDIR /app
COPY go.mod ./
RUN go mod download
COPY . .
RUN go build -o main .

FROM alpine:latest
WORKDIR /root/
COPY --from=builder /app/main .
EXPOSE 8080
CMD ["./main"]
`
}

func (goTemplate) MainFiles(serviceName string) []extract.FilePair {
	lower := strings.ToLower(serviceName)
	main := fmt.Sprintf(`package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "service": %q})
	})

	log.Printf("%s listening on :%%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
`, serviceName, serviceName)

	return []extract.FilePair{
		{Path: "main.go", Content: main},
		{Path: "go.mod", Content: fmt.Sprintf("module %s\n\ngo 1.24\n", lower)},
	}
}

type csharpTemplate struct{}

func (csharpTemplate) LanguageName() string  { return "C#" }
func (csharpTemplate) Prerequisites() string { return ".NET 8 SDK" }

func (csharpTemplate) Dockerfile() string {
	return `FROM mcr.microsoft.com/dotnet/sdk:8.0 AS build
WORKDIR /src
COPY . .
RUN dotnet publish -c Release -o /app

FROM mcr.microsoft.com/dotnet/aspnet:8.0
WORKDIR /app
COPY --from=build /app .
EXPOSE 8080
ENTRYPOINT ["dotnet", "Service.dll"]
`
}

func (csharpTemplate) MainFiles(serviceName string) []extract.FilePair {
	program := fmt.Sprintf(`var builder = WebApplication.CreateBuilder(args);
var app = builder.Build();

app.MapGet("/health", () => Results.Json(new { status = "healthy", service = "%s" }));

app.Run();
`, serviceName)

	csproj := `<Project Sdk="Microsoft.NET.Sdk.Web">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <Nullable>enable</Nullable>
  </PropertyGroup>
</Project>
`
	return []extract.FilePair{
		{Path: "Program.cs", Content: program},
		{Path: "Service.csproj", Content: csproj},
	}
}

type javaTemplate struct{}

func (javaTemplate) LanguageName() string  { return "Java" }
func (javaTemplate) Prerequisites() string { return "Java 17+ and Maven" }

func (javaTemplate) Dockerfile() string {
	return `FROM openjdk:17-jre-slim
WORKDIR /app
COPY target/*.jar app.jar
EXPOSE 8080
ENTRYPOINT ["java", "-jar", "app.jar"]
`
}

func (javaTemplate) MainFiles(serviceName string) []extract.FilePair {
	lower := strings.ToLower(serviceName)
	application := fmt.Sprintf(`package com.%s;

import org.springframework.boot.SpringApplication;
import org.springframework.boot.autoconfigure.SpringBootApplication;

@SpringBootApplication
public class Application {
    public static void main(String[] args) {
        SpringApplication.run(Application.class, args);
    }
}
`, lower)

	health := fmt.Sprintf(`package com.%s.controller;

import org.springframework.web.bind.annotation.GetMapping;
import org.springframework.web.bind.annotation.RequestMapping;
import org.springframework.web.bind.annotation.RestController;
import java.util.Map;

@RestController
@RequestMapping("/api/health")
public class HealthController {

    @GetMapping
    public Map<String, String> health() {
        return Map.of("status", "healthy", "service", "%s");
    }
}
`, lower, serviceName)

	pom := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
    <modelVersion>4.0.0</modelVersion>
    <groupId>com.%s</groupId>
    <artifactId>%s</artifactId>
    <version>1.0.0</version>
    <packaging>jar</packaging>

    <parent>
        <groupId>org.springframework.boot</groupId>
        <artifactId>spring-boot-starter-parent</artifactId>
        <version>3.2.0</version>
    </parent>

    <dependencies>
        <dependency>
            <groupId>org.springframework.boot</groupId>
            <artifactId>spring-boot-starter-web</artifactId>
        </dependency>
        <dependency>
            <groupId>org.springframework.boot</groupId>
            <artifactId>spring-boot-starter-actuator</artifactId>
        </dependency>
    </dependencies>
</project>
`, lower, lower)

	appYAML := fmt.Sprintf(`server:
  port: 8080
spring:
  application:
    name: %s
`, lower)

	return []extract.FilePair{
		{Path: fmt.Sprintf("src/main/java/com/%s/Application.java", lower), Content: application},
		{Path: fmt.Sprintf("src/main/java/com/%s/controller/HealthController.java", lower), Content: health},
		{Path: "pom.xml", Content: pom},
		{Path: "src/main/resources/application.yml", Content: appYAML},
	}
}

type javascriptTemplate struct{}

func (javascriptTemplate) LanguageName() string  { return "JavaScript" }
func (javascriptTemplate) Prerequisites() string { return "Node.js 18+ and npm" }

func (javascriptTemplate) Dockerfile() string {
	return `FROM node:18-alpine
WORKDIR /app
COPY package*.json ./
RUN npm install
COPY . .
EXPOSE 3000
CMD ["npm", "start"]
`
}

func (javascriptTemplate) MainFiles(serviceName string) []extract.FilePair {
	lower := strings.ToLower(serviceName)
	index := fmt.Sprintf(`const express = require('express');
const app = express();
const PORT = process.env.PORT || 3000;

app.use(express.json());

app.get('/health', (req, res) => {
    res.json({ status: 'healthy', service: '%s' });
});

app.listen(PORT, () => {
    console.log(`+"`"+`%s running on port ${PORT}`+"`"+`);
});

module.exports = app;
`, serviceName, serviceName)

	pkg := fmt.Sprintf(`{
  "name": "%s",
  "version": "1.0.0",
  "description": "%s microservice",
  "main": "index.js",
  "scripts": {
    "start": "node index.js",
    "test": "jest"
  },
  "dependencies": {
    "express": "^4.18.2"
  }
}
`, lower, serviceName)

	return []extract.FilePair{
		{Path: "index.js", Content: index},
		{Path: "package.json", Content: pkg},
	}
}

type pythonTemplate struct{}

func (pythonTemplate) LanguageName() string  { return "Python" }
func (pythonTemplate) Prerequisites() string { return "Python 3.11+" }

func (pythonTemplate) Dockerfile() string {
	return `FROM python:3.11-slim
WORKDIR /app
COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE 8080
CMD ["uvicorn", "app:app", "--host", "0.0.0.0", "--port", "8080"]
`
}

func (pythonTemplate) MainFiles(serviceName string) []extract.FilePair {
	app := fmt.Sprintf(`from fastapi import FastAPI

app = FastAPI(title="%s")


@app.get("/health")
def health():
    return {"status": "healthy", "service": "%s"}
`, serviceName, serviceName)

	return []extract.FilePair{
		{Path: "app.py", Content: app},
		{Path: "requirements.txt", Content: "fastapi\nuvicorn\n"},
	}
}
