package studysheet

import "fmt"

// Prompts are written in French to match the course corpus and the audience
// (electronics engineering students).

const systemPersona = "Vous êtes un assistant expert en électronique, capable de fournir des explications détaillées et de suivre les instructions données pour formater les réponses de manière optimale."

// BuildSheetPrompt returns the user prompt asking for a complete study sheet
// (course summary + multiple-choice quiz) as strict JSON.
func BuildSheetPrompt(contextText, question string) string {
	return fmt.Sprintf(`Répondez à la question ci-dessous en utilisant uniquement les informations du contexte fourni. Si le contexte ne contient pas la réponse, répondez par un JSON avec "Je ne sais pas" comme valeur du champ "Description du cours".

Contexte: %s
Question: %s

Générez une fiche complète pour un cours d'électronique en retournant un JSON exactement structuré comme suit :

{
    "cours": {
        "Titre du cours": "",
        "Description du cours": "",
        "Concepts clés": [],
        "Définitions et Formules": [],
        "Exemple concret": "",
        "Bullet points avec les concepts clés": []
    },
    "qcm": {
        "questions": [
            {
                "numero": 1,
                "question": "",
                "choix": ["", "", "", ""],
                "bonne_reponse": "1",
                "explication": ""
            }
        ]
    }
}

Règles spécifiques à suivre :
- Respectez EXACTEMENT les noms des champs fournis ci-dessus, y compris les majuscules
- Assurez-vous que les champs qui attendent des listes [] contiennent toujours des tableaux
- Les autres champs doivent contenir des chaînes de caractères simples
- Le QCM doit contenir entre 3 et 5 questions avec 4 choix chacune
- "bonne_reponse" est le numéro (à partir de 1) du bon choix dans la liste "choix"
- Ne pas utiliser de caractères de mise en forme
- Formater les formules mathématiques de manière simple
- Assurez-vous que la réponse est strictement au format JSON valide
- Ne JAMAIS ajouter de champs supplémentaires
- Ne JAMAIS omettre de champs de la structure`, contextText, question)
}

// BuildAnswerPrompt returns the user prompt for a free-form chatbot answer.
func BuildAnswerPrompt(contextText, question string) string {
	return fmt.Sprintf(`Répondez à la question ci-dessous en utilisant uniquement les informations du contexte fourni. Si le contexte ne contient pas la réponse, répondez par "Je ne sais pas".

Contexte: %s
Question: %s

Votre réponse doit:
1. Être claire, précise et adaptée au niveau d'un étudiant en école d'ingénieur en électronique
2. Inclure des explications techniques lorsque nécessaire
3. Utiliser des analogies si cela peut faciliter la compréhension
4. Être structurée avec des paragraphes logiques
5. Être factuelle et basée uniquement sur les informations fournies dans le contexte`, contextText, question)
}
